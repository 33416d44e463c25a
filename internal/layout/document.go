package layout

type Run struct {
	Text string
	X    float64
	Y    float64
	Size float64
}

type Page struct {
	Runs []Run
}

type Document struct {
	Geometry Geometry
	Pages    []Page
}

func (d Document) PageCount() int {
	return len(d.Pages)
}

// Metrics measures rendered text width at a font size, in points.
type Metrics interface {
	TextWidth(text string, size float64) float64
}

type MetricsFunc func(text string, size float64) float64

func (f MetricsFunc) TextWidth(text string, size float64) float64 {
	return f(text, size)
}
