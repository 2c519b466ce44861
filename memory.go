package scoutpod

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Memory supplies durable context about the user or the ongoing research
// task. It is retrieved once per session run and rendered into the system
// prompt.
type Memory interface {
	Retrieve(ctx context.Context) (*MemoryBlock, error)
}

// MemoryBlock is a tree of named facts. Leaf entries are plain strings;
// nested blocks render as their own tagged sections in the prompt.
type MemoryBlock struct {
	strings map[string]string
	blocks  map[string]*MemoryBlock
}

func NewMemoryBlock() *MemoryBlock {
	return &MemoryBlock{
		strings: make(map[string]string),
		blocks:  make(map[string]*MemoryBlock),
	}
}

func (m *MemoryBlock) AddString(key, value string) {
	m.strings[key] = value
}

func (m *MemoryBlock) AddBlock(name string, block *MemoryBlock) {
	m.blocks[name] = block
}

func (m *MemoryBlock) Len() int {
	return len(m.strings) + len(m.blocks)
}

// Parse flattens the block into prompt-ready sections. Top-level strings go
// into the map directly; nested blocks collapse into a single "key: value"
// multi-line entry under their name. Keys are emitted in sorted order so the
// rendered prompt is stable across runs.
func (m *MemoryBlock) Parse() map[string]string {
	out := make(map[string]string, len(m.strings)+len(m.blocks))
	for key, value := range m.strings {
		out[key] = value
	}
	for name, block := range m.blocks {
		var builder strings.Builder
		keys := make([]string, 0, len(block.strings))
		for key := range block.strings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for i, key := range keys {
			if i > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(fmt.Sprintf("%s: %s", key, block.strings[key]))
		}
		out[name] = builder.String()
	}
	return out
}

// StaticMemory is a Memory that always returns the same block. Useful for
// CLI invocations and tests where the context is known up front.
type StaticMemory struct {
	Block *MemoryBlock
}

func NewStaticMemory(block *MemoryBlock) *StaticMemory {
	if block == nil {
		block = NewMemoryBlock()
	}
	return &StaticMemory{Block: block}
}

func (m *StaticMemory) Retrieve(ctx context.Context) (*MemoryBlock, error) {
	return m.Block, nil
}
