package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/crosscheck-ai/crosscheck/internal/orchestrator"
	"github.com/crosscheck-ai/crosscheck/internal/review"
)

// Service handles MCP tool calls. It wraps the Orchestrator; all request
// semantics (validation, caching, status tracking) live there, so handlers
// only translate between tool payloads and orchestrator calls.
type Service struct {
	orch *orchestrator.Orchestrator
}

// NewService creates a Service backed by the given orchestrator.
func NewService(orch *orchestrator.Orchestrator) *Service {
	return &Service{orch: orch}
}

// Analyze runs one aggregated analysis. Errors propagate to the client;
// the MCP SDK reports them as tool errors with the message intact, so the
// host can distinguish a rejected request from an upstream outage.
func (s *Service) Analyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	req := review.AnalysisRequest{
		Prompt:   input.Prompt,
		Backends: input.Backends,
		Context:  input.Context,
		Options:  input.Options,
	}

	res, err := s.orch.Execute(ctx, req)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	return nil, AnalyzeOutput{
		Result: *res,
		Text:   review.RenderText(res),
	}, nil
}

// ScanSecrets scans a blob of source text for hardcoded credentials. The
// scan itself never fails; unmatched input yields an empty findings list.
func (s *Service) ScanSecrets(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ScanSecretsInput,
) (*mcp.CallToolResult, ScanSecretsOutput, error) {
	if input.Code == "" {
		return nil, ScanSecretsOutput{}, review.NewValidationError("code is empty")
	}

	findings := s.orch.ScanSecrets(input.Code, input.FileName)
	return nil, ScanSecretsOutput{
		Findings: findings,
		Total:    len(findings),
	}, nil
}

// GetStatus reports the lifecycle entry for a previously submitted analysis.
func (s *Service) GetStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	if input.ID == "" {
		return nil, GetStatusOutput{}, review.NewValidationError("id is required")
	}

	entry, err := s.orch.GetStatus(input.ID)
	if err != nil {
		return nil, GetStatusOutput{}, err
	}

	return nil, GetStatusOutput{Entry: *entry}, nil
}
