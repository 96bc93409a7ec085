// Package main provides the MCP server entry point for hserr.
// The server speaks the Model Context Protocol over stdio, so assistants
// can analyze crash reports and browse the report history.
package main

import (
	"context"
	"fmt"
	"os"

	"hserr-agent/src/config"
	"hserr-agent/src/logger"
	"hserr-agent/src/mcp"
	"hserr-agent/src/pipeline"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol.
	log := logger.NewWriterLogger(os.Stderr, os.Stderr, cfg.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := pipeline.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start pipeline: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()
	log.Info("[MCP] Pipeline running in %s mode", p.Mode())

	server, err := mcp.NewServer(p, cfg.CacheSize, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create MCP server: %v\n", err)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
