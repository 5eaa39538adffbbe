// Package knowledge loads, validates, and fingerprints symptom/advice knowledge bases.
package knowledge

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/shindan/internal/extract"
	"github.com/hyperjump/shindan/internal/models"
)

//go:embed default.yaml
var defaultYAML []byte

const fingerprintPrefix = "kb:"

// Base is a complete knowledge base: the symptom catalog, advice entries, their weighted
// mappings, and optional overrides for the text extractor tables.
type Base struct {
	Symptoms []models.Symptom         `yaml:"symptoms"`
	Advice   []models.AdviceEntry     `yaml:"advice"`
	Mappings []models.Mapping         `yaml:"mappings"`
	Keywords []extract.KeywordMapping `yaml:"keywords,omitempty"`
	Synonyms map[string][]string      `yaml:"synonyms,omitempty"`
}

// Default returns the built-in knowledge base.
func Default() (*Base, error) {
	return Parse(defaultYAML)
}

// Parse decodes a YAML knowledge base.
func Parse(data []byte) (*Base, error) {
	var b Base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	return &b, nil
}

// Load reads a knowledge base from path. .yaml/.yml files are parsed as YAML and .xlsx
// workbooks as spreadsheets. The result is validated.
func Load(path string) (*Base, error) {
	var (
		b   *Base
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read knowledge base: %w", readErr)
		}
		b, err = Parse(data)
	case ".xlsx":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open knowledge base: %w", openErr)
		}
		defer f.Close()
		b, err = ParseXLSX(f)
	default:
		return nil, fmt.Errorf("unsupported knowledge base format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Save writes b as YAML.
func (b *Base) Save(path string) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal knowledge base: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create knowledge base directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Fingerprint returns a stable content hash. Bases with identical content produce the same
// fingerprint regardless of the file format they were loaded from.
func (b *Base) Fingerprint() (string, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal knowledge base: %w", err)
	}
	hash := sha256.Sum256(data)
	return fingerprintPrefix + hex.EncodeToString(hash[:]), nil
}

// Extractor builds a text extractor from the base's table overrides,
// falling back to the default tables where none are given.
func (b *Base) Extractor() *extract.Extractor {
	return extract.NewExtractor(
		extract.WithKeywords(b.Keywords),
		extract.WithSynonyms(b.Synonyms),
	)
}
