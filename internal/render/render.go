// Package render draws a wind rose from a parsed export.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/couchcryptid/windrose-service/internal/domain"
)

const (
	// Caption accompanies every delivered diagram.
	Caption = "Диаграмма направлений ветра"
	// LegendTitle names the speed band units.
	LegendTitle = "Скорость ветра (м/с)"

	// DefaultDiameter is the polar plot diameter in pixels.
	DefaultDiameter = 400
	// DPI scales font point sizes to pixels.
	DPI = 100.0
	// Opening is the share of a sector's angular width covered by its bar.
	Opening = 0.85
)

// CompassLabels are the sector labels clockwise from north.
var CompassLabels = [domain.SectorCount]string{"С", "СВ", "В", "ЮВ", "Ю", "ЮЗ", "З", "СЗ"}

// Diagram is a rendered wind rose.
type Diagram struct {
	PNG          []byte
	Caption      string
	Title        []string
	CalmFraction float64
	Histogram    *domain.Histogram
}

// Reader returns a reader positioned at the start of the PNG.
func (d *Diagram) Reader() *bytes.Reader {
	return bytes.NewReader(d.PNG)
}

// CalmPercent formats the calm share with one decimal, e.g. "33.3%".
func (d *Diagram) CalmPercent() string {
	return FormatPercent(d.CalmFraction)
}

// FormatPercent formats a fraction as a percentage with one decimal.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// Title returns the two title lines for a station label and calm share.
func Title(label string, calmFraction float64) []string {
	return []string{
		strings.TrimSpace("Диаграмма ветров для " + label),
		"Дни без ветра: " + FormatPercent(calmFraction),
	}
}

// Renderer draws diagrams. It holds no per-render state and may be shared.
type Renderer struct {
	font     *truetype.Font
	diameter int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFont replaces the default font. The font must cover Cyrillic.
func WithFont(f *truetype.Font) Option {
	return func(r *Renderer) {
		if f != nil {
			r.font = f
		}
	}
}

// WithDiameter sets the polar plot diameter in pixels.
func WithDiameter(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.diameter = px
		}
	}
}

// New creates a Renderer using go-chart's bundled font unless WithFont is given.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{diameter: DefaultDiameter}
	for _, opt := range opts {
		opt(r)
	}
	if r.font == nil {
		f, err := chart.GetDefaultFont()
		if err != nil {
			return nil, fmt.Errorf("load default font: %w", err)
		}
		r.font = f
	}
	return r, nil
}

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// Render validates the set, computes the calm share and histogram and
// draws the diagram. Every failure is a *domain.RenderError.
func (r *Renderer) Render(set *domain.RecordSet) (*Diagram, error) {
	if set == nil {
		return nil, &domain.RenderError{Reason: "no dataset loaded"}
	}
	if err := set.Validate(); err != nil {
		return nil, &domain.RenderError{Reason: "invalid dataset", Err: err}
	}

	calm, err := set.CalmFraction()
	if err != nil {
		return nil, err
	}
	hist, err := domain.BuildHistogram(set)
	if err != nil {
		return nil, err
	}

	title := Title(set.SourceLabel, calm)
	png, err := r.draw(title, hist)
	if err != nil {
		return nil, &domain.RenderError{Reason: "draw diagram", Err: err}
	}

	return &Diagram{
		PNG:          png,
		Caption:      Caption,
		Title:        title,
		CalmFraction: calm,
		Histogram:    hist,
	}, nil
}
