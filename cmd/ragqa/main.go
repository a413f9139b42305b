// Command ragqa answers questions about a text document from the console.
//
// Usage:
//
//	ragqa [document.txt]
//
// The document path defaults to $RAGQA_DOCUMENT. OPENAI_API_KEY must be set,
// in the environment or in a .env file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/teilomillet/ragqa"
	"github.com/teilomillet/ragqa/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Document = args[0]
	}
	ragqa.SetLogLevel(cfg.LogLevel)
	ragqa.Info("Loading document", "path", cfg.Document, "index", cfg.IndexType)

	ctx := context.Background()
	pipeline, err := ragqa.NewSimpleRAG(ctx, cfg.Document, *cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	return ragqa.NewConsole(pipeline, os.Stdin, os.Stdout).Run(ctx)
}
