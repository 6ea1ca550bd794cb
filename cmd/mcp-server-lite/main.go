// Package main is the stdio MCP server for readmission risk assessment. It needs
// only the model bundle; configuration comes from READMISSION_* environment variables
// or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/readmission-risk-server/internal/config"
	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/mcp"
	"github.com/readmission-risk-server/internal/setup"
)

var version = "dev"

func main() {
	// Check for setup subcommand
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		cli := setup.NewCLI(os.Stdin, os.Stdout)
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	cfg := config.LoadLiteConfig()

	server, err := mcp.NewLiteServer(cfg, mcp.WithVersion(version))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create MCP server: %v\n", err)
		if errors.Is(err, domain.ErrBundleNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("MCP server failed: %v", err)
	}
}
