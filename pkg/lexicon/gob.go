package lexicon

import (
	"encoding/gob"
	"fmt"
	"os"
)

func (l *Lexicon) loadGob(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var raw map[string][]string
	if err := gob.NewDecoder(f).Decode(&raw); err != nil {
		return fmt.Errorf("decode gob: %w", err)
	}
	// Keys are re-normalized so a manifest change takes effect without a re-import.
	for word, prons := range raw {
		key := l.normalize(word)
		for _, p := range prons {
			l.add(key, p)
		}
	}
	return nil
}

// SaveGob serializes entries to a gob-encoded file at path.
func SaveGob(entries map[string][]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return f.Close()
}
