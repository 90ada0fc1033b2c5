// Package seeds loads seed URL lists from disk.
package seeds

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads one URL per line from path. Surrounding whitespace is
// trimmed; blank lines and lines starting with # are skipped. A missing
// file is an error for the CLI boundary to surface.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return urls, nil
}
