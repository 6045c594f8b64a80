// Package wordlist loads word lists from files.
package wordlist

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// LoadWords reads one word per line from the provided file path.
// Lines are trimmed and blank lines are dropped.
func LoadWords(path string) (words []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			words, err = nil, cerr
		}
	}()
	return ReadWords(file)
}

// ReadWords reads one word per line from r.
func ReadWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
