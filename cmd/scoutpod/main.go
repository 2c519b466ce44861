package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/boat-builder/scoutpod"
	"github.com/boat-builder/scoutpod/knowledge"
	"github.com/boat-builder/scoutpod/tavily"
)

func usage() {
	fmt.Fprintf(os.Stderr, `scoutpod - research agent over your documents and the web

Usage:
  scoutpod index -docs <dir> [-store <file>] [-config <file>]
  scoutpod ask   [-store <file>] [-config <file>] [-verbose] <question>

Credentials are read from OPENAI_API_KEY and TAVILY_API_KEY (a .env file in
the working directory is honored). When run from a terminal, missing keys are
prompted for.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "index":
		err = runIndex(ctx, os.Args[2:])
	case "ask":
		err = runAsk(ctx, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	docsDir := fs.String("docs", "", "directory with documents to index (required)")
	storePath := fs.String("store", "", "path of the vector store file")
	configPath := fs.String("config", "scoutpod.yaml", "path of the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *docsDir == "" {
		fs.Usage()
		return fmt.Errorf("-docs is required")
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	openaiKey, err := requireCredential("OPENAI_API_KEY", "OpenAI API key")
	if err != nil {
		return err
	}

	store, err := knowledge.OpenStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	indexer := &knowledge.Indexer{
		Store:         store,
		Embedder:      knowledge.NewOpenAIEmbedder(openaiKey, cfg.Embedding.Model),
		Include:       cfg.Indexer.Include,
		Exclude:       cfg.Indexer.Exclude,
		MaxChunkChars: cfg.Indexer.MaxChunkChars,
		ChunkOverlap:  cfg.Indexer.ChunkOverlap,
		BatchSize:     cfg.Indexer.BatchSize,
		Progress:      true,
	}

	stats, err := indexer.Index(ctx, *docsDir)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d files (%d chunks) into %s\n", stats.Files, stats.Chunks, cfg.Store.Path)
	return nil
}

func runAsk(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	storePath := fs.String("store", "", "path of the vector store file")
	configPath := fs.String("config", "scoutpod.yaml", "path of the config file")
	verbose := fs.Bool("verbose", false, "print token usage and cost after the answer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fs.Usage()
		return fmt.Errorf("a question is required")
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	openaiKey, err := requireCredential("OPENAI_API_KEY", "OpenAI API key")
	if err != nil {
		return err
	}
	tavilyKey, err := requireCredential("TAVILY_API_KEY", "Tavily API key")
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return fmt.Errorf("vector store %s not found; run `scoutpod index` first", cfg.Store.Path)
	}
	store, err := knowledge.OpenStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder := knowledge.NewOpenAIEmbedder(openaiKey, cfg.Embedding.Model)
	llm := scoutpod.NewLLM(openaiKey, cfg.LLM.BaseURL, cfg.LLM.StrongModel, cfg.LLM.GenerationModel)

	ag := scoutpod.NewAgent(cfg.Agent.Prompt, []scoutpod.Skill{
		tavily.NewWebResearchSkill(tavily.NewClient(tavilyKey)),
		knowledge.NewKnowledgeSkill(store, embedder),
	})
	if cfg.Agent.MaxTurns > 0 {
		ag.SetMaxTurns(cfg.Agent.MaxTurns)
	}

	session := scoutpod.NewSession(ctx, llm, scoutpod.NewStaticMemory(nil), ag)
	defer session.Close()

	if err := attachStorage(session, cfg); err != nil {
		return err
	}

	if err := session.In(question); err != nil {
		return err
	}
	for {
		response, err := session.Out()
		if err != nil {
			return err
		}
		switch response.Type {
		case scoutpod.ResponseTypeStatus:
			fmt.Fprintf(os.Stderr, "· %s\n", response.Content)
		case scoutpod.ResponseTypePartialText:
			fmt.Print(response.Content)
		case scoutpod.ResponseTypeError:
			fmt.Println()
			return fmt.Errorf("%s", response.Content)
		case scoutpod.ResponseTypeEnd:
			fmt.Println()
			if *verbose {
				printCost(session)
			}
			return nil
		}
	}
}

func attachStorage(session *scoutpod.Session, cfg *Config) error {
	switch {
	case cfg.Store.PostgresURI != "":
		storage, err := scoutpod.NewPostgresStorage(cfg.Store.PostgresURI)
		if err != nil {
			return fmt.Errorf("connect conversation storage: %w", err)
		}
		session.AttachStorage(storage)
	case cfg.Store.ConversationsPath != "":
		storage, err := scoutpod.NewSQLiteStorage(cfg.Store.ConversationsPath)
		if err != nil {
			return fmt.Errorf("open conversation storage: %w", err)
		}
		session.AttachStorage(storage)
	}
	return nil
}

func printCost(session *scoutpod.Session) {
	details, ok := session.Cost()
	if !ok {
		fmt.Fprintln(os.Stderr, "(no pricing available for the configured model)")
		return
	}
	fmt.Fprintf(os.Stderr, "tokens: %d in / %d out, cost: $%.4f\n",
		details.InputTokens, details.OutputTokens, details.TotalCost)
}
