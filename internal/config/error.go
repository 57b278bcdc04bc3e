package config

import "strings"

// Error collects everything wrong with a config file so it can be reported
// in one pass.
type Error struct {
	Path    string
	Missing []string // unresolved ${VAR} references
	Errors  []string // Validate messages
}

func (e *Error) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if len(e.Missing) > 0 {
		b.WriteString("missing environment variables: ")
		b.WriteString(strings.Join(e.Missing, ", "))
		if len(e.Errors) > 0 {
			b.WriteString("\n")
		}
	}
	if len(e.Errors) > 0 {
		b.WriteString("validation failed:")
		for _, msg := range e.Errors {
			b.WriteString("\n  - ")
			b.WriteString(msg)
		}
	}
	return b.String()
}

// HasErrors reports whether e carries any problem.
func (e *Error) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
