package layout

import (
	"errors"
	"fmt"
)

// Geometry is expressed in PDF points with the origin at the top-left corner
// of the page. Run Y coordinates are text baselines.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	Margin       float64
	BodySize     float64
	TitleSize    float64
	HeadingSizes [3]float64
	LineSpacing  float64
	TitleGap     float64
}

func A4() Geometry {
	return Geometry{
		PageWidth:    595.28,
		PageHeight:   841.89,
		Margin:       48,
		BodySize:     11,
		TitleSize:    16,
		HeadingSizes: [3]float64{14, 12.5, 11.5},
		LineSpacing:  1.35,
		TitleGap:     12,
	}
}

func (g Geometry) UsableWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

func (g Geometry) LineHeight() float64 {
	return g.BodySize * g.LineSpacing
}

func (g Geometry) bottom() float64 {
	return g.PageHeight - g.Margin
}

func (g Geometry) validate() error {
	if g.PageWidth <= 0 || g.PageHeight <= 0 {
		return errors.New("page size must be positive")
	}
	if g.Margin < 0 {
		return errors.New("margin must not be negative")
	}
	if g.UsableWidth() <= 0 {
		return fmt.Errorf("margin %.2f leaves no usable width", g.Margin)
	}
	if g.BodySize <= 0 || g.TitleSize <= 0 || g.LineSpacing <= 0 {
		return errors.New("font sizes and line spacing must be positive")
	}
	for i, size := range g.HeadingSizes {
		if size <= 0 {
			return fmt.Errorf("heading level %d size must be positive", i+1)
		}
	}
	if g.bottom()-g.Margin < g.LineHeight() {
		return errors.New("page is too short for a single line")
	}
	return nil
}
