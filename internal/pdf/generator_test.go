package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signchain/signchain/internal/layout"
)

func TestGenerateProducesPDF(t *testing.T) {
	g, err := NewGenerator("", layout.A4())
	require.NoError(t, err)

	out, err := g.Generate("# Kira Sözleşmesi\n\nTaraflar aşağıdaki şartlarda anlaşmıştır.", DefaultTitle)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pages)
	assert.True(t, strings.HasPrefix(string(out.Content), "%PDF-"))
	assert.Contains(t, string(out.Content), "%%EOF")
}

func TestGeneratePaginatesLongText(t *testing.T) {
	g, err := NewGenerator("", layout.A4())
	require.NoError(t, err)

	text := strings.Repeat("Madde metni satırı.\n", 120)
	out, err := g.Generate(text, DefaultTitle)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Pages)
}

func TestGenerateRejectsInvalidGeometry(t *testing.T) {
	geom := layout.A4()
	geom.Margin = geom.PageWidth
	g, err := NewGenerator("", geom)
	require.NoError(t, err)

	_, err = g.Generate("text", "title")
	require.Error(t, err)
}

func TestNewGeneratorFontErrors(t *testing.T) {
	_, err := NewGenerator(filepath.Join(t.TempDir(), "missing.ttf"), layout.A4())
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.ttf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = NewGenerator(empty, layout.A4())
	require.Error(t, err)

	notFont := filepath.Join(t.TempDir(), "notes.ttf")
	require.NoError(t, os.WriteFile(notFont, []byte("this is not a font file at all"), 0o600))
	_, err = NewGenerator(notFont, layout.A4())
	require.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.ttf")
	header := append([]byte{0x00, 0x01, 0x00, 0x00}, make([]byte, 60)...)
	require.NoError(t, os.WriteFile(broken, header, 0o600))
	_, err = NewGenerator(broken, layout.A4())
	require.Error(t, err)
}

func TestNewGeneratorFontOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.ttf")
	require.NoError(t, os.WriteFile(path, defaultFont, 0o600))

	g, err := NewGenerator(path, layout.A4())
	require.NoError(t, err)
	out, err := g.Generate("Çalışma süresi", DefaultTitle)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pages)
}

func TestGenerateWritesTurkishAsUnicode(t *testing.T) {
	g, err := NewGenerator("", layout.A4())
	require.NoError(t, err)
	g.compress = false

	out, err := g.Generate("Şirket ığdır ÇÖÜ", DefaultTitle)
	require.NoError(t, err)

	assert.Contains(t, string(out.Content), "/FontFile2")
	assert.True(t, bytes.Contains(out.Content, utf16BE("Şirket ığdır ÇÖÜ")))
	// The cp1252 encoding of the same text must not appear.
	assert.False(t, bytes.Contains(out.Content, []byte("\xdeirket")))
}

func utf16BE(s string) []byte {
	var b []byte
	for _, r := range s {
		b = append(b, byte(r>>8), byte(r))
	}
	return b
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "", want: DefaultFileName},
		{title: "   ", want: DefaultFileName},
		{title: "***", want: DefaultFileName},
		{title: "Sözleşme", want: "sozlesme.pdf"},
		{title: "Kira Sözleşmesi 2024/İzmir", want: "kira-sozlesmesi-2024-izmir.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.title), tt.title)
	}
	assert.LessOrEqual(t, len(FileName(strings.Repeat("uzun başlık ", 40))), 84)
}
