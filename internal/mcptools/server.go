package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the 3 crosscheck tools registered:
// analyze, scan_secrets, and get_status.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crosscheck",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze",
		Description: "Analyze code with multiple AI backends and return one merged result. Findings reported by more than one backend are deduplicated, marked high-confidence, and scored into a consensus percentage.",
	}, svc.Analyze)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_secrets",
		Description: "Scan source text for hardcoded credentials (API keys, tokens, private keys). Matches are masked; the original secret is never echoed back.",
	}, svc.ScanSecrets)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Get the lifecycle status of a previous analyze call: pending, running, completed, or failed, plus the result or error once terminal.",
	}, svc.GetStatus)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts an HTTP server exposing the crosscheck MCP tools.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
