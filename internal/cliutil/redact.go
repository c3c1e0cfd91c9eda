package cliutil

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

// secretVariables are environment variable names whose values are masked when
// they appear as NAME=value or NAME: value in a command line.
var secretVariables = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SESSION_TOKEN",
	"AZURE_CLIENT_SECRET",
	"GCP_SERVICE_ACCOUNT_KEY",
	"DATABASE_PASSWORD",
	"DB_PASSWORD",
	"POSTGRES_PASSWORD",
	"REDIS_PASSWORD",
	"API_KEY",
	"ACCESS_TOKEN",
	"REFRESH_TOKEN",
	"CLIENT_SECRET",
}

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

var redactions = []redaction{
	{
		// ${VAR} placeholders.
		pattern:     regexp.MustCompile(`\$\{[^}]+\}`),
		replacement: "$${" + redactedPlaceholder + "}",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(` + alternation(secretVariables) + `)\b(\s*[:=]\s*)(["']?)([^"'\s]+)(["']?)`),
		replacement: "$1$2$3" + redactedPlaceholder + "$5",
	},
	{
		// --db-password=x, -token=x, --api-key=x.
		pattern:     regexp.MustCompile(`(?i)(--?(?:[a-z0-9]+-)*(?:password|passwd|token|secret|api-key|apikey))(=)([^"'\s]+)`),
		replacement: "$1$2" + redactedPlaceholder,
	},
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, word := range words {
		quoted[i] = regexp.QuoteMeta(word)
	}
	return strings.Join(quoted, "|")
}

// RedactSecrets masks values that commonly carry credentials on a command
// line before they reach diagnostics or the status API.
func RedactSecrets(message string) string {
	if message == "" {
		return message
	}
	for _, r := range redactions {
		message = r.pattern.ReplaceAllString(message, r.replacement)
	}
	return message
}
