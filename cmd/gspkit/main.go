package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/gspkit/internal/mcp"
	"github.com/sanonone/gspkit/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	httpAddr := flag.String("http-addr", "", "Listen address for the HTTP API (overrides the config file, e.g. :9091)")
	authToken := flag.String("auth-token", "", "Bearer token protecting the API (overrides the config file)")
	mcpStdio := flag.Bool("mcp", false, "Serve the MCP tools on stdin/stdout instead of starting the HTTP server")

	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *authToken != "" {
		cfg.AuthToken = *authToken
	}

	srv := server.NewServer(cfg)

	if *mcpStdio {
		// Stdio carries the protocol, so logs must stay on stderr.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		m := mcp.NewMCPServer(srv.Store())
		if err := m.Run(context.Background(), &mcpsdk.StdioTransport{}); err != nil {
			log.Fatalf("MCP server stopped: %v", err)
		}
		return
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()
	slog.Info("gspkit started", "http_addr", cfg.HTTPAddr, "auth", cfg.AuthToken != "")

	<-shutdownChan
	srv.Shutdown()
}
