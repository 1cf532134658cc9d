package render

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/windrose-service/internal/domain"
)

// Font sizes in points.
const (
	titleFontSize  = 10.0
	tickFontSize   = 9.0
	radialFontSize = 7.0
	legendFontSize = 8.0
)

// Layout in pixels.
const (
	margin      = 8
	titlePad    = 25
	tickPad     = 8
	legendGap   = 20
	legendPad   = 8
	legendCols  = 2
	swatchGap   = 6
	columnGap   = 16
	arcSteps    = 12
	ringsTarget = 5
)

var (
	edgeColor   = drawing.Color{R: 211, G: 211, B: 211, A: 255}
	gridColor   = drawing.Color{R: 176, G: 176, B: 176, A: 255}
	frameColor  = drawing.Color{R: 0, G: 0, B: 0, A: 255}
	textColor   = drawing.Color{R: 0, G: 0, B: 0, A: 255}
	legendFrame = drawing.Color{R: 204, G: 204, B: 204, A: 255}
)

// layout holds the computed canvas geometry. The canvas is sized to its
// content so no blank border remains around title, plot and legend.
type layout struct {
	width, height int
	cx, cy        int
	radius        int
	lineStep      int
	titleHeight   int
	legend        legendLayout
}

type legendLayout struct {
	left, top, width, height int
	titleHeight              int
	rowStep                  int
	rows                     int
	entryWidth               int
	swatch                   int
}

func (r *Renderer) draw(title []string, hist *domain.Histogram) ([]byte, error) {
	lay, err := r.measure(title, hist)
	if err != nil {
		return nil, err
	}

	rd, err := chart.PNG(lay.width, lay.height)
	if err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	rd.SetDPI(DPI)
	rd.SetFont(r.font)

	fillRect(rd, 0, 0, lay.width, lay.height, drawing.ColorWhite)

	rmax, step := radialScale(hist.MaxSectorFrequency())
	scale := func(v float64) float64 { return v / rmax * float64(lay.radius) }

	drawGrid(rd, lay, rmax, step, scale)
	drawBars(rd, lay, hist, scale)
	drawFrame(rd, lay)
	drawCompassLabels(rd, lay)
	drawRadialLabels(rd, lay, rmax, step, scale)
	drawTitle(rd, lay, title)
	drawLegend(rd, lay, hist)

	var buf bytes.Buffer
	if err := rd.Save(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// measure computes the layout using a scratch renderer for text metrics.
func (r *Renderer) measure(title []string, hist *domain.Histogram) (layout, error) {
	m, err := chart.PNG(1, 1)
	if err != nil {
		return layout{}, fmt.Errorf("create scratch canvas: %w", err)
	}
	m.SetDPI(DPI)
	m.SetFont(r.font)

	var lay layout
	lay.radius = r.diameter / 2

	m.SetFontSize(titleFontSize)
	titleWidth, titleLine := 0, 0
	for _, line := range title {
		b := m.MeasureText(line)
		titleWidth = max(titleWidth, b.Width())
		titleLine = max(titleLine, b.Height())
	}
	lay.lineStep = titleLine * 14 / 10
	lay.titleHeight = lay.lineStep * len(title)

	m.SetFontSize(tickFontSize)
	tickExtent := 0
	for _, label := range CompassLabels {
		b := m.MeasureText(label)
		tickExtent = max(tickExtent, b.Width(), b.Height())
	}
	plotExtent := lay.radius + tickPad + tickExtent

	m.SetFontSize(legendFontSize)
	labelWidth, labelHeight := 0, 0
	for _, band := range hist.Bands {
		b := m.MeasureText(band.Label())
		labelWidth = max(labelWidth, b.Width())
		labelHeight = max(labelHeight, b.Height())
	}
	lg := &lay.legend
	lg.swatch = labelHeight
	lg.entryWidth = lg.swatch + swatchGap + labelWidth
	lg.rowStep = labelHeight + swatchGap
	lg.rows = (len(hist.Bands) + legendCols - 1) / legendCols

	m.SetFontSize(tickFontSize)
	lt := m.MeasureText(LegendTitle)
	lg.titleHeight = lt.Height()
	entriesWidth := legendCols*lg.entryWidth + (legendCols-1)*columnGap
	lg.width = max(entriesWidth, lt.Width()) + 2*legendPad
	lg.height = legendPad + lg.titleHeight + swatchGap + lg.rows*lg.rowStep - swatchGap + legendPad

	lay.width = max(2*plotExtent, titleWidth, lg.width) + 2*margin
	lay.cx = lay.width / 2
	lay.cy = margin + lay.titleHeight + titlePad + plotExtent

	lg.left = lay.cx - lg.width/2
	lg.top = lay.cy + plotExtent + legendGap
	lay.height = lg.top + lg.height + margin

	return lay, nil
}

// radialScale picks a round ring step so about ringsTarget rings cover maxFreq.
func radialScale(maxFreq float64) (rmax, step float64) {
	if maxFreq <= 0 {
		return 1, 1
	}
	raw := maxFreq / ringsTarget
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	switch f := raw / exp; {
	case f <= 1:
		step = exp
	case f <= 2:
		step = 2 * exp
	case f <= 5:
		step = 5 * exp
	default:
		step = 10 * exp
	}
	return math.Ceil(maxFreq/step-1e-9) * step, step
}

func drawGrid(rd chart.Renderer, lay layout, rmax, step float64, scale func(float64) float64) {
	rd.SetStrokeColor(gridColor)
	rd.SetStrokeWidth(0.8)
	for v := step; v < rmax-1e-9; v += step {
		rd.Circle(scale(v), lay.cx, lay.cy)
		rd.Stroke()
	}
	for s := 0; s < domain.SectorCount; s++ {
		x, y := polar(lay, float64(lay.radius), domain.SectorCenter(s))
		rd.MoveTo(lay.cx, lay.cy)
		rd.LineTo(x, y)
		rd.Stroke()
	}
}

func drawFrame(rd chart.Renderer, lay layout) {
	rd.SetStrokeColor(frameColor)
	rd.SetStrokeWidth(1)
	rd.Circle(float64(lay.radius), lay.cx, lay.cy)
	rd.Stroke()
}

// drawBars stacks one annular wedge per speed band outward from the centre.
func drawBars(rd chart.Renderer, lay layout, hist *domain.Histogram, scale func(float64) float64) {
	half := domain.SectorWidth * Opening / 2
	colors := bandColors(len(hist.Bands))

	rd.SetStrokeColor(edgeColor)
	rd.SetStrokeWidth(1)
	for s := 0; s < domain.SectorCount; s++ {
		from := domain.SectorCenter(s) - half
		to := domain.SectorCenter(s) + half
		var cum float64
		for b := range hist.Bands {
			freq := hist.Frequency(s, b)
			if freq == 0 {
				continue
			}
			inner, outer := scale(cum), scale(cum+freq)
			cum += freq

			rd.SetFillColor(colors[b])
			x, y := polar(lay, inner, from)
			rd.MoveTo(x, y)
			rd.ArcTo(lay.cx, lay.cy, outer, outer, screenAngle(from), radians(to-from))
			for i := arcSteps; i >= 0; i-- {
				x, y = polar(lay, inner, from+(to-from)*float64(i)/arcSteps)
				rd.LineTo(x, y)
			}
			rd.Close()
			rd.FillStroke()
		}
	}
}

func drawCompassLabels(rd chart.Renderer, lay layout) {
	rd.SetFontSize(tickFontSize)
	rd.SetFontColor(textColor)
	for s, label := range CompassLabels {
		b := rd.MeasureText(label)
		extent := float64(lay.radius + tickPad + max(b.Width(), b.Height())/2)
		x, y := polar(lay, extent, domain.SectorCenter(s))
		rd.Text(label, x-b.Width()/2, y+b.Height()/2)
	}
}

// drawRadialLabels writes ring values along the gap between N and NE bars.
func drawRadialLabels(rd chart.Renderer, lay layout, rmax, step float64, scale func(float64) float64) {
	rd.SetFontSize(radialFontSize)
	rd.SetFontColor(textColor)
	for v := step; v <= rmax+1e-9; v += step {
		label := strconv.FormatFloat(v, 'f', -1, 64) + "%"
		x, y := polar(lay, scale(v), domain.SectorWidth/2)
		rd.Text(label, x+2, y)
	}
}

func drawTitle(rd chart.Renderer, lay layout, title []string) {
	rd.SetFontSize(titleFontSize)
	rd.SetFontColor(textColor)
	for i, line := range title {
		b := rd.MeasureText(line)
		baseline := margin + (i+1)*lay.lineStep - (lay.lineStep - b.Height())
		rd.Text(line, lay.cx-b.Width()/2, baseline)
	}
}

func drawLegend(rd chart.Renderer, lay layout, hist *domain.Histogram) {
	lg := lay.legend
	rd.SetFillColor(drawing.ColorWhite)
	rd.SetStrokeColor(legendFrame)
	rd.SetStrokeWidth(1)
	rectPath(rd, lg.left, lg.top, lg.left+lg.width, lg.top+lg.height)
	rd.FillStroke()

	rd.SetFontColor(textColor)
	rd.SetFontSize(tickFontSize)
	tb := rd.MeasureText(LegendTitle)
	rd.Text(LegendTitle, lay.cx-tb.Width()/2, lg.top+legendPad+lg.titleHeight)

	colors := bandColors(len(hist.Bands))
	entriesWidth := legendCols*lg.entryWidth + (legendCols-1)*columnGap
	startX := lay.cx - entriesWidth/2
	startY := lg.top + legendPad + lg.titleHeight + swatchGap

	rd.SetFontSize(legendFontSize)
	for b, band := range hist.Bands {
		col, row := b/lg.rows, b%lg.rows
		x := startX + col*(lg.entryWidth+columnGap)
		y := startY + row*lg.rowStep

		rd.SetFillColor(colors[b])
		rd.SetStrokeColor(edgeColor)
		rectPath(rd, x, y, x+lg.swatch, y+lg.swatch)
		rd.FillStroke()

		rd.SetFontColor(textColor)
		rd.Text(band.Label(), x+lg.swatch+swatchGap, y+lg.swatch)
	}
}

func fillRect(rd chart.Renderer, left, top, right, bottom int, c drawing.Color) {
	rd.SetFillColor(c)
	rectPath(rd, left, top, right, bottom)
	rd.Fill()
}

func rectPath(rd chart.Renderer, left, top, right, bottom int) {
	rd.MoveTo(left, top)
	rd.LineTo(right, top)
	rd.LineTo(right, bottom)
	rd.LineTo(left, bottom)
	rd.Close()
}

// polar converts a radius and compass heading to canvas coordinates.
func polar(lay layout, radius, heading float64) (int, int) {
	a := screenAngle(heading)
	x := float64(lay.cx) + radius*math.Cos(a)
	y := float64(lay.cy) + radius*math.Sin(a)
	return int(math.Round(x)), int(math.Round(y))
}

// screenAngle converts a compass heading (clockwise from north) to the
// canvas angle (clockwise from east, y axis pointing down).
func screenAngle(heading float64) float64 {
	return radians(heading - 90)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
