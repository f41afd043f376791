// Package secrets implements the local secret scanner. It runs independent
// per-category regex patterns against each line of input and reports masked
// findings; raw matched values never leave this package.
package secrets

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

const (
	// DefaultMaxInputBytes caps how much of the input is scanned.
	DefaultMaxInputBytes = 1 << 20

	// DefaultMaxLineBytes truncates individual lines before matching,
	// bounding per-line scan cost.
	DefaultMaxLineBytes = 2000
)

var placeholderRe = regexp.MustCompile(placeholderExpr)

// Config tunes a Scanner. Custom patterns and exclusions are appended to the
// built-in sets.
type Config struct {
	Patterns      []Pattern `yaml:"patterns,omitempty"`
	ExcludeFiles  []string  `yaml:"excludeFiles,omitempty"`
	MaxInputBytes int       `yaml:"maxInputBytes,omitempty"`
	MaxLineBytes  int       `yaml:"maxLineBytes,omitempty"`
}

type compiledPattern struct {
	Pattern
	re *regexp.Regexp
}

// Scanner matches lines against its compiled pattern set. Construction
// compiles every pattern individually; a pattern that fails to compile is
// logged and dropped, never aborting the scanner.
type Scanner struct {
	patterns []compiledPattern
	excludes []*regexp.Regexp
	maxInput int
	maxLine  int
	logger   *slog.Logger
}

// New builds a Scanner from the built-in patterns plus cfg.
func New(cfg Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scanner{
		maxInput: cfg.MaxInputBytes,
		maxLine:  cfg.MaxLineBytes,
		logger:   logger,
	}
	if s.maxInput <= 0 {
		s.maxInput = DefaultMaxInputBytes
	}
	if s.maxLine <= 0 {
		s.maxLine = DefaultMaxLineBytes
	}

	for _, p := range append(append([]Pattern{}, builtinPatterns...), cfg.Patterns...) {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			logger.Warn("secret pattern skipped", "error", review.NewScanError(p.Name, err))
			continue
		}
		s.patterns = append(s.patterns, compiledPattern{Pattern: p, re: re})
	}

	for _, expr := range append(append([]string{}, defaultExcludes...), cfg.ExcludeFiles...) {
		re, err := regexp.Compile(expr)
		if err != nil {
			logger.Warn("exclusion pattern skipped", "expr", expr, "error", err)
			continue
		}
		s.excludes = append(s.excludes, re)
	}

	return s
}

// Excluded reports whether a file name is outside scanning scope.
func (s *Scanner) Excluded(fileName string) bool {
	for _, re := range s.excludes {
		if re.MatchString(fileName) {
			return true
		}
	}
	return false
}

// Scan matches code line by line and returns masked findings. It is a no-op
// for excluded file names. Input beyond the configured cap is ignored and
// overlong lines are truncated before matching. Lines containing an obvious
// placeholder (documentation values, template interpolation, environment
// references) are suppressed. Each pattern reports at most its first match
// per line.
func (s *Scanner) Scan(code, fileName string) []review.Finding {
	if code == "" {
		return nil
	}
	if fileName != "" && s.Excluded(fileName) {
		return nil
	}
	if len(code) > s.maxInput {
		s.logger.Debug("scan input truncated", "bytes", len(code), "cap", s.maxInput)
		code = code[:s.maxInput]
	}

	var findings []review.Finding
	for i, line := range strings.Split(code, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if len(line) > s.maxLine {
			line = line[:s.maxLine]
		}
		if line == "" || placeholderRe.MatchString(line) {
			continue
		}

		for _, p := range s.patterns {
			loc := p.re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			findings = append(findings, review.Finding{
				Title:       p.Title,
				Category:    p.Category,
				Severity:    p.Severity,
				Line:        i + 1,
				Column:      loc[0] + 1,
				Description: fmt.Sprintf("%s detected in source.", p.Title),
				Suggestion:  "Remove the credential from source, rotate it, and load it from the environment or a secret manager.",
				Match:       Mask(line[loc[0]:loc[1]]),
			})
		}
	}

	return findings
}

// Mask irreversibly redacts a matched value. At most the first two
// characters survive, followed by a length indicator; short values are
// redacted entirely.
func Mask(value string) string {
	n := len(value)
	if n <= 4 {
		return fmt.Sprintf("***(%d chars)", n)
	}
	return fmt.Sprintf("%s***(%d chars)", value[:2], n)
}
