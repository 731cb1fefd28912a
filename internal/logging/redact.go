package logging

import (
	"io"
	"regexp"
	"strings"
)

const mask = "[REDACTED]"

type redactionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Credential-shaped substrings masked in every log line. Quotes are
// excluded from the token classes so JSON log lines stay well formed.
var redactionRules = []redactionRule{
	{pattern: regexp.MustCompile(`(Bearer\s+)[^\s"']+`), replacement: "${1}" + mask},
	{pattern: regexp.MustCompile(`(sk-ant-api\d*-)[^\s"']+`), replacement: "${1}" + mask},
	{pattern: regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}`), replacement: mask},
	{pattern: regexp.MustCompile(`\bAIza[A-Za-z0-9_-]{10,}`), replacement: mask},
	{pattern: regexp.MustCompile(`(api[_-]?key["']?\s*[:=]\s*["']?)([^\s"']+)`), replacement: "${1}" + mask},
}

// Redact masks credential-shaped substrings and every given secret.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, mask)
	}
	for _, rule := range redactionRules {
		s = rule.pattern.ReplaceAllString(s, rule.replacement)
	}
	return s
}

// RedactingWriter masks secrets in everything written through it before
// the bytes reach the underlying sink.
type RedactingWriter struct {
	out     io.Writer
	secrets []string
}

func NewRedactingWriter(out io.Writer, secrets ...string) *RedactingWriter {
	filtered := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			filtered = append(filtered, s)
		}
	}
	return &RedactingWriter{out: out, secrets: filtered}
}

func (w *RedactingWriter) Write(p []byte) (int, error) {
	masked := Redact(string(p), w.secrets...)
	if _, err := w.out.Write([]byte(masked)); err != nil {
		return 0, err
	}
	// Report the original length so callers never see a short write.
	return len(p), nil
}
