package secrets

import "github.com/crosscheck-ai/crosscheck/internal/review"

// Pattern is one secret-category detector. Expr is compiled at scanner
// construction; a pattern that fails to compile is logged and skipped so one
// bad expression never disables the rest.
type Pattern struct {
	Name     string          `yaml:"name"`
	Title    string          `yaml:"title"`
	Category string          `yaml:"category"`
	Severity review.Severity `yaml:"severity"`
	Expr     string          `yaml:"expr"`
}

// builtinPatterns covers the common credential shapes: cloud-provider keys,
// VCS and SaaS tokens, credential-bearing connection strings, private-key
// headers, JWTs, and generic key/secret/password assignments. Expressions
// are matched per line, never against the whole input.
var builtinPatterns = []Pattern{
	{
		Name:     "aws_access_key",
		Title:    "AWS access key",
		Category: "api_key",
		Severity: review.SeverityCritical,
		Expr:     `\b(AKIA|ASIA)[0-9A-Z]{16}\b`,
	},
	{
		Name:     "aws_secret_key",
		Title:    "AWS secret access key",
		Category: "api_key",
		Severity: review.SeverityCritical,
		Expr:     `(?i)aws[_-]?secret[_-]?(access[_-]?)?key['"]?\s*[:=]\s*['"]?[A-Za-z0-9/+=]{40}`,
	},
	{
		Name:     "github_token",
		Title:    "GitHub token",
		Category: "token",
		Severity: review.SeverityCritical,
		Expr:     `\bgh[pousr]_[A-Za-z0-9]{36,}\b`,
	},
	{
		Name:     "gitlab_token",
		Title:    "GitLab personal access token",
		Category: "token",
		Severity: review.SeverityCritical,
		Expr:     `\bglpat-[A-Za-z0-9_\-]{20,}\b`,
	},
	{
		Name:     "slack_token",
		Title:    "Slack token",
		Category: "token",
		Severity: review.SeverityHigh,
		Expr:     `\bxox[baprs]-[A-Za-z0-9-]{10,}\b`,
	},
	{
		Name:     "stripe_key",
		Title:    "Stripe secret key",
		Category: "api_key",
		Severity: review.SeverityCritical,
		Expr:     `\b(sk|rk)_(live|test)_[A-Za-z0-9]{24,}\b`,
	},
	{
		Name:     "google_api_key",
		Title:    "Google API key",
		Category: "api_key",
		Severity: review.SeverityHigh,
		Expr:     `\bAIza[0-9A-Za-z_\-]{35}\b`,
	},
	{
		Name:     "openai_api_key",
		Title:    "OpenAI API key",
		Category: "api_key",
		Severity: review.SeverityHigh,
		Expr:     `\bsk-(proj-)?[A-Za-z0-9_\-]{32,}\b`,
	},
	{
		Name:     "connection_string",
		Title:    "Connection string with embedded credentials",
		Category: "connection_string",
		Severity: review.SeverityHigh,
		Expr:     `(?i)\b(postgres(ql)?|mysql|mongodb(\+srv)?|redis|amqp)://[^\s'"@:]+:[^\s'"@]+@[^\s'"]+`,
	},
	{
		Name:     "private_key",
		Title:    "Private key material",
		Category: "private_key",
		Severity: review.SeverityCritical,
		Expr:     `-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+|PGP\s+)?PRIVATE\s+KEY`,
	},
	{
		Name:     "jwt",
		Title:    "JSON Web Token",
		Category: "token",
		Severity: review.SeverityMedium,
		Expr:     `\bey[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\b`,
	},
	{
		Name:     "generic_api_key",
		Title:    "API key assignment",
		Category: "api_key",
		Severity: review.SeverityHigh,
		Expr:     `(?i)\b(api[_-]?key|apikey|access[_-]?key)\b['"]?\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,}`,
	},
	{
		Name:     "generic_secret",
		Title:    "Secret assignment",
		Category: "secret",
		Severity: review.SeverityHigh,
		Expr:     `(?i)\b(secret|token|auth[_-]?token|client[_-]?secret|bearer)\b['"]?\s*[:=]\s*['"]?[A-Za-z0-9_/+=\-]{16,}`,
	},
	{
		Name:     "password_assignment",
		Title:    "Hardcoded password",
		Category: "password",
		Severity: review.SeverityMedium,
		Expr:     `(?i)\bpassword\b['"]?\s*[:=]\s*['"][^\s'"]{8,}['"]`,
	},
}

// defaultExcludes filters file names the scanner skips outright: test and
// fixture trees, lockfiles, and minified or vendored assets.
var defaultExcludes = []string{
	`(?i)(^|/)(tests?|specs?|__tests__|fixtures?|examples?|testdata|mocks?|vendor|node_modules)(/|$)`,
	`(?i)\.(test|spec)\.[a-z0-9]+$`,
	`_test\.go$`,
	`(?i)(^|/)(package-lock\.json|yarn\.lock|pnpm-lock\.yaml|go\.sum|cargo\.lock|gemfile\.lock|composer\.lock)$`,
	`(?i)\.min\.(js|css)$`,
}

// placeholderExpr suppresses matches on lines that are obviously not live
// secrets: documentation values, template interpolation, and references that
// resolve at runtime from the environment.
const placeholderExpr = `(?i)(\bexamples?\b|\bsamples?\b|\btest\b|\bdummy\b|\bfake\b|\bplaceholder\b|\bchangeme\b|\byour[_-]|xxx+|\*{3,}|\$\{|\{\{|%s\b|process\.env|os\.environ|os\.getenv)`
