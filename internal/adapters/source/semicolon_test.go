package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = `3;T;X;01;A00-A09;A00.-;A00;A00;Cholera;001;4-001;3-003;2-001;1-002
4;T;X;01;A00-A09;A00.0;A00.0;A000;Cholera due to Vibrio cholerae 01, biovar cholerae;001;4-001;3-003;2-001;1-002

097;4-017;3-055
4;T;X;01;A00-A09;A00.-;A00;A00;Cholera;001;4-001;3-003;2-001;1-002
4;T;X;01;A00-A09;A01.0;A01.0;A010;   ;002
`

func TestSemicolonReader_Parse(t *testing.T) {
	r, err := NewSemicolonReader(DefaultLayout())
	require.NoError(t, err)

	entries, stats, err := r.Parse(context.Background(), strings.NewReader(table))
	require.NoError(t, err)

	require.Len(t, entries, 3, "duplicates are kept by the reader")
	assert.Equal(t, "A00", entries[0].Code)
	assert.Equal(t, "Cholera", entries[0].Title)
	assert.Equal(t, "A00 - Cholera", entries[0].Text)
	assert.Equal(t, "A00.0", entries[1].Code)
	assert.Equal(t, "Cholera due to Vibrio cholerae 01, biovar cholerae", entries[1].Title)

	assert.Equal(t, 5, stats.Lines)
	assert.Equal(t, 1, stats.Short)
	assert.Equal(t, 1, stats.Empty)
}

func TestSemicolonReader_DecodesLatin1(t *testing.T) {
	// "Ménière" in ISO-8859-1
	line := []byte("4;T;X;08;H80-H83;H81.0;H81.0;H810;M\xe9ni\xe8re disease;\n")
	r, err := NewSemicolonReader(DefaultLayout())
	require.NoError(t, err)

	entries, _, err := r.Parse(context.Background(), strings.NewReader(string(line)))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ménière disease", entries[0].Title)
}

func TestSemicolonReader_CustomLayout(t *testing.T) {
	layout := Layout{Delimiter: "|", CodeField: 0, TitleField: 1, MinFields: 2, Encoding: EncodingUTF8}
	r, err := NewSemicolonReader(layout)
	require.NoError(t, err)

	entries, _, err := r.Parse(context.Background(), strings.NewReader("J45.9|Asthma, unspecified\nshort\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "J45.9", entries[0].Code)
}

func TestSemicolonReader_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.txt")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o644))

	r, err := NewSemicolonReader(DefaultLayout())
	require.NoError(t, err)

	entries, _, err := r.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	_, _, err = r.Read(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{"empty delimiter", Layout{CodeField: 0, TitleField: 1, MinFields: 2, Encoding: EncodingUTF8}},
		{"negative field", Layout{Delimiter: ";", CodeField: -1, TitleField: 1, MinFields: 2, Encoding: EncodingUTF8}},
		{"min fields too small", Layout{Delimiter: ";", CodeField: 5, TitleField: 8, MinFields: 8, Encoding: EncodingUTF8}},
		{"unknown encoding", Layout{Delimiter: ";", CodeField: 0, TitleField: 1, MinFields: 2, Encoding: "utf16"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSemicolonReader(tt.layout)
			assert.Error(t, err)
		})
	}
	assert.NoError(t, DefaultLayout().Validate())
}
