// Package artifact loads fitted scoring models from JSON or YAML files.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/okian/creditscore/internal/domain/scoring"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrUnknownFormat is returned for files that are neither JSON nor YAML.
	ErrUnknownFormat = errors.New("unknown artifact format")
	// ErrUnsupportedKind is returned for model families other than logistic.
	ErrUnsupportedKind = errors.New("unsupported model kind")
)

// Format of an artifact document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the on-disk shape of a model artifact.
type Document struct {
	Name         string    `json:"name" yaml:"name"`
	Kind         string    `json:"kind" yaml:"kind"`
	Features     []string  `json:"features,omitempty" yaml:"features,omitempty"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Impute       []float64 `json:"impute,omitempty" yaml:"impute,omitempty"`
	Scale        Scale     `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Scale holds standardization parameters.
type Scale struct {
	Mean []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std  []float64 `json:"std,omitempty" yaml:"std,omitempty"`
}

// Loader builds the scoring model once at startup.
type Loader interface {
	Load(ctx context.Context) (scoring.Model, error)
	String() string
}

// File loads an artifact from Path; the format follows the extension.
type File struct {
	Path string
}

var _ Loader = (*File)(nil)

func (f *File) String() string { return f.Path }

// Load implements Loader.
func (f *File) Load(ctx context.Context) (scoring.Model, error) {
	format, err := FormatOf(f.Path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	doc, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return doc.Model()
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Decode reads one document from r.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &doc, nil
}

// Model validates the document and builds the scoring model.
func (d *Document) Model() (scoring.Model, error) {
	if d.Kind != scoring.KindLogistic {
		return nil, fmt.Errorf("%w: %q, want %q", ErrUnsupportedKind, d.Kind, scoring.KindLogistic)
	}

	m, err := scoring.NewLogistic(scoring.LogisticParams{
		Features:     d.Features,
		Coefficients: d.Coefficients,
		Intercept:    d.Intercept,
		Impute:       d.Impute,
		Mean:         d.Scale.Mean,
		Std:          d.Scale.Std,
	}, scoring.WithName(d.Name))
	if err != nil {
		return nil, err
	}
	return m, nil
}
