package layout

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var headingPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^#\s+`),
	regexp.MustCompile(`^##\s+`),
	regexp.MustCompile(`^###\s+`),
}

// Layout places the title and Markdown-flavored text on pages. Lines are
// wrapped to the usable width and a page is appended whenever the next run
// would cross the bottom margin.
func Layout(text, title string, metrics Metrics, geom Geometry) (Document, error) {
	if metrics == nil {
		return Document{}, errors.New("layout: metrics are required")
	}
	if err := geom.validate(); err != nil {
		return Document{}, fmt.Errorf("layout: %w", err)
	}

	w := &writer{geom: geom, metrics: metrics, doc: Document{Geometry: geom}}
	w.addPage()

	if title = strings.TrimSpace(title); title != "" {
		advance := geom.TitleSize * geom.LineSpacing
		for _, line := range w.wrap(title, geom.TitleSize) {
			w.emit(line, geom.TitleSize, advance)
		}
		w.y += geom.TitleSize + geom.TitleGap - advance
	}

	lineHeight := geom.LineHeight()
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		line, size := classify(raw, geom)
		if strings.TrimSpace(line) == "" {
			w.y += lineHeight / 2
			continue
		}
		for _, out := range w.wrap(line, size) {
			w.emit(out, size, lineHeight)
		}
	}
	return w.doc, nil
}

func classify(line string, geom Geometry) (string, float64) {
	for i, prefix := range headingPrefixes {
		if prefix.MatchString(line) {
			return strings.TrimSpace(prefix.ReplaceAllString(line, "")), geom.HeadingSizes[i]
		}
	}
	return line, geom.BodySize
}

type writer struct {
	geom    Geometry
	metrics Metrics
	doc     Document
	y       float64
}

func (w *writer) addPage() {
	w.doc.Pages = append(w.doc.Pages, Page{})
	w.y = w.geom.Margin
}

func (w *writer) emit(text string, size, advance float64) {
	if w.y+advance > w.geom.bottom() {
		w.addPage()
	}
	page := &w.doc.Pages[len(w.doc.Pages)-1]
	page.Runs = append(page.Runs, Run{Text: text, X: w.geom.Margin, Y: w.y, Size: size})
	w.y += advance
}

// wrap greedily fills lines word by word. A word wider than the usable width
// on its own is broken at character level so no line overflows.
func (w *writer) wrap(text string, size float64) []string {
	maxWidth := w.geom.UsableWidth()
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if w.metrics.TextWidth(candidate, size) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		if w.metrics.TextWidth(word, size) <= maxWidth {
			line = word
			continue
		}
		lines = append(lines, w.breakWord(word, size, maxWidth)...)
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func (w *writer) breakWord(word string, size, maxWidth float64) []string {
	var chunks []string
	chunk := ""
	for _, r := range word {
		test := chunk + string(r)
		if chunk != "" && w.metrics.TextWidth(test, size) > maxWidth {
			chunks = append(chunks, chunk)
			chunk = string(r)
			continue
		}
		chunk = test
	}
	if chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
