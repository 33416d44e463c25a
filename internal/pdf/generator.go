package pdf

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/signchain/signchain/internal/layout"
)

const (
	DefaultTitle    = "Sözleşme"
	DefaultFileName = "sozlesme.pdf"

	fontName = "DejaVuSansCondensed"
)

//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

type Rendered struct {
	Content []byte
	Pages   int
}

type Generator struct {
	fontData []byte
	geometry layout.Geometry
	compress bool
}

// NewGenerator loads the TrueType font at fontPath, or the embedded
// DejaVu Sans Condensed when fontPath is empty. The font is parsed once here
// so a broken file stops startup.
func NewGenerator(fontPath string, geom layout.Geometry) (*Generator, error) {
	data := defaultFont
	if fontPath != "" {
		raw, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", fontPath, err)
		}
		data = raw
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}

	g := &Generator{fontData: data, geometry: geom, compress: true}
	if err := g.checkFont(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Generator) Geometry() layout.Geometry {
	return g.geometry
}

func (g *Generator) Generate(text, title string) (*Rendered, error) {
	pdf := g.newDocument()
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	doc, err := layout.Layout(text, title, metrics(pdf), g.geometry)
	if err != nil {
		return nil, err
	}

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, run := range page.Runs {
			pdf.SetFontSize(run.Size)
			pdf.Text(run.X, run.Y, run.Text)
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &Rendered{Content: buf.Bytes(), Pages: doc.PageCount()}, nil
}

// checkFont registers the font on a scratch document. gofpdf drops fonts it
// cannot parse without recording an error, so SetFont is what surfaces it;
// truncated tables can also panic inside the parser.
func (g *Generator) checkFont() (err error) {
	if !isTrueType(g.fontData) {
		return fmt.Errorf("font is not a TrueType file")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse font: %v", r)
		}
	}()
	if pdf := g.newDocument(); pdf.Error() != nil {
		return fmt.Errorf("parse font: %w", pdf.Error())
	}
	return nil
}

func isTrueType(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	tag := string(data[:4])
	return tag == "\x00\x01\x00\x00" || tag == "true"
}

func (g *Generator) newDocument() *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: g.geometry.PageWidth, Ht: g.geometry.PageHeight},
	})
	pdf.SetCompression(g.compress)
	pdf.SetMargins(g.geometry.Margin, g.geometry.Margin, g.geometry.Margin)
	pdf.SetAutoPageBreak(false, g.geometry.Margin)
	pdf.AddUTF8FontFromBytes(fontName, "", g.fontData)
	pdf.SetFont(fontName, "", g.geometry.BodySize)
	return pdf
}

func metrics(pdf *gofpdf.Fpdf) layout.Metrics {
	return layout.MetricsFunc(func(text string, size float64) float64 {
		pdf.SetFontSize(size)
		return pdf.GetStringWidth(text)
	})
}

var (
	fileNameFolder = strings.NewReplacer(
		"ç", "c", "Ç", "c", "ğ", "g", "Ğ", "g", "ı", "i", "İ", "i",
		"ö", "o", "Ö", "o", "ş", "s", "Ş", "s", "ü", "u", "Ü", "u",
	)
	fileNameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)
)

// FileName derives an ASCII download name from a document title.
func FileName(title string) string {
	name := strings.ToLower(fileNameFolder.Replace(strings.TrimSpace(title)))
	name = strings.Trim(fileNameUnsafe.ReplaceAllString(name, "-"), "-")
	if name == "" {
		return DefaultFileName
	}
	if len(name) > 80 {
		name = strings.TrimRight(name[:80], "-")
	}
	return name + ".pdf"
}
