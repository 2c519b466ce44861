// Package prompts renders the system prompts used by the research agent and
// its skill loops.
package prompts

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

func generateFromTemplate[T any](templateString string, data T) (string, error) {
	funcMap := template.FuncMap{
		"formatMemoryBlocks": formatMemoryBlocks,
	}

	tmpl, err := template.New("prompt").Funcs(funcMap).Parse(templateString)
	if err != nil {
		return "", err
	}
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, data); err != nil {
		return "", err
	}
	return prompt.String(), nil
}

// formatMemoryBlocks renders each memory entry as its own tagged section.
// Keys are sorted so the rendered prompt is deterministic.
func formatMemoryBlocks(memoryBlocks map[string]string) string {
	if len(memoryBlocks) == 0 {
		return ""
	}

	keys := make([]string, 0, len(memoryBlocks))
	for key := range memoryBlocks {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, key := range keys {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("<%s>\n%s\n</%s>", key, memoryBlocks[key], key))
	}
	return builder.String()
}
