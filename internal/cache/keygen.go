package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

// keyPayload is the canonical projection of a request that determines its
// cache identity. Only fields that change the analysis payload participate;
// scheduling knobs (timeout, parallel mode, warning flags) do not.
type keyPayload struct {
	Prompt         string                `json:"prompt"`
	Backends       []string              `json:"backends"`
	Context        review.RequestContext `json:"context"`
	SeverityFilter review.Severity       `json:"severityFilter"`
	Template       string                `json:"template"`
	Preset         string                `json:"preset"`
	AutoDetect     bool                  `json:"autoDetect"`
	Individual     bool                  `json:"individual"`
	SecretScan     bool                  `json:"secretScan"`
	FileName       string                `json:"fileName"`
}

// Key canonicalizes a normalized request into a deterministic content hash.
// Callers must resolve option defaults (notably SecretScan) before keying so
// that an explicit value and its default hash identically.
func Key(req review.AnalysisRequest) string {
	backends := make([]string, len(req.Backends))
	copy(backends, req.Backends)
	sort.Strings(backends)

	payload := keyPayload{
		Prompt:         req.Prompt,
		Backends:       backends,
		Context:        req.Context,
		SeverityFilter: req.Options.SeverityFilter,
		Template:       req.Options.Template,
		Preset:         req.Options.Preset,
		AutoDetect:     req.Options.AutoDetect,
		Individual:     req.Options.IncludeIndividualAnalyses,
		SecretScan:     req.Options.SecretScan != nil && *req.Options.SecretScan,
		FileName:       req.Options.FileName,
	}

	// Marshaling a struct emits fields in declaration order, so the digest
	// input is canonical.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
