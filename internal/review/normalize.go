package review

import (
	"fmt"
	"strings"
	"time"
)

// Limits bounds request normalization. Zero values fall back to the
// defaults below.
type Limits struct {
	MaxPromptBytes int
	MinTimeout     time.Duration
	MaxTimeout     time.Duration
	DefaultTimeout time.Duration
}

// DefaultLimits returns the normalization bounds used when the
// configuration does not override them.
func DefaultLimits() Limits {
	return Limits{
		MaxPromptBytes: 100_000,
		MinTimeout:     5 * time.Second,
		MaxTimeout:     10 * time.Minute,
		DefaultTimeout: 2 * time.Minute,
	}
}

// Templates and presets the prompt builder understands. Unknown values are
// dropped during normalization with a warning, never rejected.
var (
	knownTemplates = map[string]bool{
		"security":     true,
		"performance":  true,
		"architecture": true,
		"quality":      true,
	}
	knownPresets = map[string]bool{
		"quick":    true,
		"thorough": true,
	}
)

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxPromptBytes <= 0 {
		l.MaxPromptBytes = d.MaxPromptBytes
	}
	if l.MinTimeout <= 0 {
		l.MinTimeout = d.MinTimeout
	}
	if l.MaxTimeout <= 0 {
		l.MaxTimeout = d.MaxTimeout
	}
	if l.DefaultTimeout <= 0 {
		l.DefaultTimeout = d.DefaultTimeout
	}
	return l
}

// Normalize sanitizes req in place: trims and bounds the prompt, folds enum
// casing, deduplicates the backend set, and clamps numeric overrides. It
// returns one human-readable warning per correction applied. A prompt that
// is empty or oversized is rejected with a ValidationError before any work
// is queued.
func Normalize(req *AnalysisRequest, limits Limits) ([]string, error) {
	limits = limits.withDefaults()
	var warnings []string

	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return nil, NewValidationError("prompt is empty")
	}
	if len(req.Prompt) > limits.MaxPromptBytes {
		return nil, NewValidationError("prompt exceeds %d bytes (got %d)", limits.MaxPromptBytes, len(req.Prompt))
	}

	// Backend ids: lowercase, trimmed, deduplicated preserving order.
	if len(req.Backends) > 0 {
		seen := make(map[string]bool, len(req.Backends))
		kept := req.Backends[:0]
		for _, b := range req.Backends {
			b = strings.ToLower(strings.TrimSpace(b))
			if b == "" {
				continue
			}
			if seen[b] {
				warnings = append(warnings, fmt.Sprintf("duplicate backend %q dropped", b))
				continue
			}
			seen[b] = true
			kept = append(kept, b)
		}
		req.Backends = kept
	}

	// Enum-ish options fold to lowercase.
	req.Options.SeverityFilter = Severity(strings.ToLower(string(req.Options.SeverityFilter)))
	req.Options.Template = strings.ToLower(strings.TrimSpace(req.Options.Template))
	req.Options.Preset = strings.ToLower(strings.TrimSpace(req.Options.Preset))

	if sf := req.Options.SeverityFilter; sf != "" && !sf.Valid() {
		warnings = append(warnings, fmt.Sprintf("unknown severity filter %q ignored", sf))
		req.Options.SeverityFilter = ""
	}

	if tmpl := req.Options.Template; tmpl != "" && !knownTemplates[tmpl] {
		warnings = append(warnings, fmt.Sprintf("unknown template %q ignored", tmpl))
		req.Options.Template = ""
	}
	if preset := req.Options.Preset; preset != "" && !knownPresets[preset] {
		warnings = append(warnings, fmt.Sprintf("unknown preset %q ignored", preset))
		req.Options.Preset = ""
	}

	if req.Options.TimeoutMS < 0 {
		warnings = append(warnings, fmt.Sprintf("negative timeout %dms replaced with default", req.Options.TimeoutMS))
		req.Options.TimeoutMS = 0
	} else if req.Options.TimeoutMS > 0 {
		to := time.Duration(req.Options.TimeoutMS) * time.Millisecond
		if to < limits.MinTimeout {
			warnings = append(warnings, fmt.Sprintf("timeout %v clamped to minimum %v", to, limits.MinTimeout))
			req.Options.TimeoutMS = int(limits.MinTimeout / time.Millisecond)
		} else if to > limits.MaxTimeout {
			warnings = append(warnings, fmt.Sprintf("timeout %v clamped to maximum %v", to, limits.MaxTimeout))
			req.Options.TimeoutMS = int(limits.MaxTimeout / time.Millisecond)
		}
	}

	normalizeContext(&req.Context)

	if req.Options.WarnOnMissingContext && req.Context.IsZero() && !req.Options.AutoDetect {
		warnings = append(warnings, "no context provided; results may be less precise")
	}

	return warnings, nil
}

// Timeout resolves the effective per-backend timeout for normalized options.
func (o RequestOptions) Timeout(limits Limits) time.Duration {
	limits = limits.withDefaults()
	if o.TimeoutMS <= 0 {
		return limits.DefaultTimeout
	}
	return time.Duration(o.TimeoutMS) * time.Millisecond
}

func normalizeContext(c *RequestContext) {
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	c.Framework = strings.ToLower(strings.TrimSpace(c.Framework))
	c.Platform = strings.ToLower(strings.TrimSpace(c.Platform))
	c.ProjectType = strings.ToLower(strings.TrimSpace(c.ProjectType))
	c.ThreatModel = strings.TrimSpace(c.ThreatModel)
	c.Scope = strings.TrimSpace(c.Scope)

	if len(c.Focus) > 0 {
		kept := c.Focus[:0]
		for _, f := range c.Focus {
			f = strings.TrimSpace(f)
			if f != "" {
				kept = append(kept, f)
			}
		}
		c.Focus = kept
	}
}
