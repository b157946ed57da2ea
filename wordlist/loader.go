// Package wordlist loads the embedded censored-word dictionaries fed to the
// moderation automaton.
package wordlist

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	"chat-relay/errors"
)

//go:embed censored/*.txt
var censoredFiles embed.FS

// Data carries the loading result, languages included for logging.
type Data struct {
	Words     []string
	Languages []string
}

// Load parses every embedded dictionary. Each .txt file is one language
// ("en.txt" -> "en"), one word per line, blank lines skipped.
func Load() (*Data, error) {
	return loadFrom(censoredFiles, "censored")
}

func loadFrom(fsys fs.FS, dir string) (*Data, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner copes with both \n and \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &Data{Words: words, Languages: languages}, nil
}
