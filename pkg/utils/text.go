package utils

import (
	"strings"
)

// MultilineItalic wraps every non-empty line in WhatsApp italics.
func MultilineItalic(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			lines[i] = ""
			continue
		}
		lines[i] = "_" + trimmed + "_"
	}
	return strings.Join(lines, "\n")
}

// ReplacePlaceholders substitutes {key} markers with the given values.
func ReplacePlaceholders(text string, values map[string]string) string {
	if len(values) == 0 {
		return text
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Truncate cuts s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// ToggleString adds value to list when missing or removes it when present.
// The boolean reports whether value is present after the call.
func ToggleString(list []string, value string) ([]string, bool) {
	for i, item := range list {
		if strings.EqualFold(item, value) {
			return append(list[:i:i], list[i+1:]...), false
		}
	}
	return append(list, value), true
}

// ContainsString reports whether list holds value, case-insensitively.
func ContainsString(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
