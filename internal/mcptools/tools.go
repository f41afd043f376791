package mcptools

import (
	"github.com/crosscheck-ai/crosscheck/internal/review"
	"github.com/crosscheck-ai/crosscheck/internal/status"
)

// --- MCP Tool Input/Output Types ---
// These structs define the JSON schema for each MCP tool. The MCP Go SDK
// auto-generates JSON schemas from struct tags.

// AnalyzeInput is the input for the analyze MCP tool.
type AnalyzeInput struct {
	Prompt   string                `json:"prompt" jsonschema:"the code, diff, or review question to analyze"`
	Backends []string              `json:"backends,omitempty" jsonschema:"backend ids to consult (default: all configured backends)"`
	Context  review.RequestContext `json:"context,omitempty" jsonschema:"project context forwarded to every backend (language, framework, platform, threat model)"`
	Options  review.RequestOptions `json:"options,omitempty" jsonschema:"per-request options: timeoutMs, parallel, severityFilter, template, preset, secretScan, fileName, includeIndividualAnalyses"`
}

// AnalyzeOutput is the result of the analyze MCP tool.
type AnalyzeOutput struct {
	Result review.AggregatedResult `json:"result"`
	Text   string                  `json:"text"` // human-readable rendering of Result
}

// ScanSecretsInput is the input for the scan_secrets MCP tool.
type ScanSecretsInput struct {
	Code     string `json:"code" jsonschema:"the source text to scan for hardcoded credentials"`
	FileName string `json:"fileName,omitempty" jsonschema:"file name used for test and fixture exclusion rules"`
}

// ScanSecretsOutput is the result of the scan_secrets MCP tool.
type ScanSecretsOutput struct {
	Findings []review.Finding `json:"findings"`
	Total    int              `json:"total"`
}

// GetStatusInput is the input for the get_status MCP tool.
type GetStatusInput struct {
	ID string `json:"id" jsonschema:"analysis id returned by a previous analyze call"`
}

// GetStatusOutput is the result of the get_status MCP tool.
type GetStatusOutput struct {
	Entry status.Entry `json:"entry"`
}
