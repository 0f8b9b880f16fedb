// Package source reads coded-term tables.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
)

// Encodings accepted by Layout.Encoding.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

// Layout describes the positional format of a source table.
type Layout struct {
	Delimiter  string
	CodeField  int // 0-based
	TitleField int // 0-based
	MinFields  int // shorter rows are skipped
	Encoding   string
}

// DefaultLayout matches the WHO ICD-10 systematic codes file.
func DefaultLayout() Layout {
	return Layout{
		Delimiter:  ";",
		CodeField:  5,
		TitleField: 8,
		MinFields:  9,
		Encoding:   EncodingLatin1,
	}
}

// Validate checks that the field mapping is usable.
func (l Layout) Validate() error {
	if l.Delimiter == "" {
		return fmt.Errorf("source: delimiter is empty")
	}
	if l.CodeField < 0 || l.TitleField < 0 {
		return fmt.Errorf("source: field indexes must be >= 0 (code=%d, title=%d)", l.CodeField, l.TitleField)
	}
	if l.MinFields <= l.CodeField || l.MinFields <= l.TitleField {
		return fmt.Errorf("source: min fields %d must exceed code field %d and title field %d",
			l.MinFields, l.CodeField, l.TitleField)
	}
	switch l.Encoding {
	case EncodingLatin1, EncodingUTF8:
	default:
		return fmt.Errorf("source: unsupported encoding %q", l.Encoding)
	}
	return nil
}

// SemicolonReader implements ports.SourceReader for delimited text tables.
type SemicolonReader struct {
	layout Layout
}

// NewSemicolonReader creates a reader for the given layout.
func NewSemicolonReader(layout Layout) (*SemicolonReader, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &SemicolonReader{layout: layout}, nil
}

// Read opens path and parses it. Malformed rows are counted, not fatal.
func (r *SemicolonReader) Read(ctx context.Context, path string) ([]entities.CodeEntry, ports.ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ports.ReadStats{}, err
	}
	defer f.Close()
	return r.Parse(ctx, f)
}

// Parse reads entries from src in line order. Duplicates are kept.
func (r *SemicolonReader) Parse(ctx context.Context, src io.Reader) ([]entities.CodeEntry, ports.ReadStats, error) {
	if r.layout.Encoding == EncodingLatin1 {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}

	var (
		entries []entities.CodeEntry
		stats   ports.ReadStats
	)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		parts := strings.Split(line, r.layout.Delimiter)
		if len(parts) < r.layout.MinFields {
			stats.Short++
			continue
		}

		entry, ok := entities.NewCodeEntry(parts[r.layout.CodeField], parts[r.layout.TitleField])
		if !ok {
			stats.Empty++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scanning source: %w", err)
	}
	return entries, stats, nil
}
