package endpoint

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Normalize lower-cases a hostname, strips an inline comment and the
// trailing root dot, and reports whether the result is a usable hostname.
func Normalize(s string) (string, bool) {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	if !isHostname(s) {
		return "", false
	}
	return s, true
}

func isHostname(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			ch := label[i]
			switch {
			case ch >= 'a' && ch <= 'z':
			case ch >= '0' && ch <= '9':
			case ch == '-':
			default:
				return false
			}
		}
	}
	return true
}

// Parse reads one endpoint hostname per line. Blank lines and '#' comments
// are skipped, duplicates are dropped and the first occurrence keeps its
// position. Lines that are not valid hostnames are returned in rejected.
func Parse(r io.Reader) (endpoints []string, rejected []string, err error) {
	seen := map[string]bool{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		host, ok := Normalize(line)
		if !ok {
			rejected = append(rejected, line)
			continue
		}
		if seen[host] {
			continue
		}
		seen[host] = true
		endpoints = append(endpoints, host)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return endpoints, rejected, nil
}

// ReadFile parses the endpoint list at path. An empty list is reported as
// ErrEmptyList so callers can treat it as a configuration error.
func ReadFile(path string) (endpoints []string, rejected []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open endpoint list: %w", err)
	}
	defer f.Close()

	endpoints, rejected, err = Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read endpoint list: %w", err)
	}
	if len(endpoints) == 0 {
		return nil, rejected, fmt.Errorf("%w: %s", ErrEmptyList, path)
	}
	return endpoints, rejected, nil
}
