package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m3rciful/promptbinder/core/logger"
)

//go:embed sample_prompts.json
var sampleJSON []byte

// Template file sources reported by Load.
const (
	SourceFile   = "file"
	SourceSample = "sample"
)

// LoadReport describes how a catalog was obtained.
type LoadReport struct {
	Path   string
	Source string
	// Err is why the file was not used; nil when Source is SourceFile.
	Err error
	// WriteErr is set when the sample could not be written back to Path.
	WriteErr error
}

type fileCategory struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Items       []string `json:"items"`
}

type filePrompt struct {
	Title          string            `json:"title"`
	Icon           string            `json:"icon"`
	Fields         []string          `json:"fields"`
	FieldsExamples map[string]string `json:"fields_examples"`
	Template       string            `json:"template"`
}

type fileCatalog struct {
	Categories []fileCategory `json:"categories"`
	Prompts    orderedPrompts `json:"prompts"`
}

// orderedPrompts decodes the prompts object keeping key order.
type orderedPrompts []Prompt

func (o *orderedPrompts) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("prompts must be an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var fp filePrompt
		if err := dec.Decode(&fp); err != nil {
			return fmt.Errorf("prompt %q: %w", key, err)
		}
		*o = append(*o, Prompt{
			Key:      key,
			Title:    fp.Title,
			Icon:     fp.Icon,
			Fields:   fp.Fields,
			Examples: fp.FieldsExamples,
			Template: fp.Template,
		})
	}
	_, err = dec.Token()
	return err
}

// Parse decodes a template file.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	cats := make([]Category, 0, len(fc.Categories))
	for _, c := range fc.Categories {
		cats = append(cats, Category{
			ID:          strings.TrimSpace(c.ID),
			Title:       strings.TrimSpace(c.Title),
			Icon:        strings.TrimSpace(c.Icon),
			Description: strings.TrimSpace(c.Description),
			Items:       c.Items,
		})
	}
	return New(cats, fc.Prompts), nil
}

// Sample returns the built-in catalog.
func Sample() *Catalog {
	c, err := Parse(sampleJSON)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the template file at path. A missing or malformed file is
// replaced by the built-in sample, which is also written to path; failing
// to write it is reported but never fatal.
func Load(path string) (*Catalog, LoadReport) {
	report := LoadReport{Path: path, Source: SourceFile}
	data, err := os.ReadFile(path)
	if err == nil {
		var c *Catalog
		if c, err = Parse(data); err == nil {
			warnUnknownPlaceholders(c)
			logger.Catalog.Info("templates loaded",
				slog.String("event", "load"),
				slog.String("status", "ok"),
				slog.String("path", path),
				slog.Int("count", len(c.prompts)),
			)
			return c, report
		}
	}

	report.Source = SourceSample
	report.Err = err
	level, reason := slog.LevelWarn, "malformed"
	if errors.Is(err, fs.ErrNotExist) {
		level, reason = slog.LevelInfo, "missing"
	}
	logger.Catalog.LogAttrs(logger.Background(), level, "templates replaced by sample",
		slog.String("event", "load"),
		slog.String("status", "skip"),
		slog.String("path", path),
		slog.String("cause", reason),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)

	if werr := writeSample(path); werr != nil {
		report.WriteErr = werr
		logger.Catalog.Error("sample write failed",
			slog.String("event", "write_sample"),
			slog.String("status", "fail"),
			slog.String("path", path),
			slog.String("err", logger.SanitizeLimit(werr.Error(), 256)),
		)
	}
	return Sample(), report
}

func writeSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, sampleJSON, 0o644)
}

// warnUnknownPlaceholders logs templates referencing fields they never ask for.
func warnUnknownPlaceholders(c *Catalog) {
	for _, p := range c.prompts {
		known := make(map[string]struct{}, len(p.Fields))
		for _, f := range p.Fields {
			known[f] = struct{}{}
		}
		for _, name := range Placeholders(p.Template) {
			if _, ok := known[name]; ok {
				continue
			}
			logger.Catalog.Warn("template placeholder without field",
				slog.String("event", "validate"),
				slog.String("prompt", p.Key),
				slog.String("field", logger.SanitizeLimit(name, 64)),
			)
		}
	}
}
