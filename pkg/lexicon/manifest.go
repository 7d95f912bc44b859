package lexicon

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes a lexicon: where it was harvested and how to read it.
type Manifest struct {
	ID           string     `yaml:"id" json:"id"`
	Version      string     `yaml:"version" json:"version"`
	Language     string     `yaml:"language" json:"language"`
	LanguageCode string     `yaml:"language_code" json:"language_code"`
	Source       string     `yaml:"source" json:"source"`
	SourceURL    string     `yaml:"source_url" json:"source_url,omitempty"`
	License      string     `yaml:"license" json:"license"`
	CutOffDate   string     `yaml:"cut_off_date,omitempty" json:"cut_off_date,omitempty"`
	DataFile     string     `yaml:"data_file" json:"data_file"`
	Format       FormatSpec `yaml:"format" json:"-"`
}

// FormatSpec describes the TSV layout and how keys and pronunciations are
// processed at load time.
type FormatSpec struct {
	Delimiter      string `yaml:"delimiter,omitempty"`
	Encoding       string `yaml:"encoding,omitempty"`
	HasHeader      bool   `yaml:"has_header,omitempty"`
	WordColumn     string `yaml:"word_column,omitempty"`
	PronColumn     string `yaml:"pron_column,omitempty"`
	Normalize      string `yaml:"normalize,omitempty"`
	ExpandVariants bool   `yaml:"expand_variants,omitempty"`
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.DataFile == "" {
		m.DataFile = "data.tsv"
	}
	return &m, nil
}

// WriteManifest writes m as YAML to dir/manifest.yaml.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}
