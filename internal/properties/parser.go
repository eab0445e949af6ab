package properties

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parse reads key=value lines from r. The line is split on the first '=',
// so the value keeps any further '=' characters. Blank lines and lines whose
// first non-blank character is '#' or '!' are skipped. A later duplicate key
// replaces an earlier one.
func Parse(name string, r io.Reader) (map[string]string, error) {
	props := make(map[string]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			return nil, &ParseError{Source: name, Line: lineNo, Text: line}
		}
		props[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, name, err)
	}

	return props, nil
}
