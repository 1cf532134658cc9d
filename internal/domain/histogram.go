package domain

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// SectorCount is the number of direction sectors, starting at north.
	SectorCount = 8
	// SectorWidth is the angular width of one sector in degrees.
	SectorWidth = 360.0 / SectorCount
	// BandCount is the number of speed bands.
	BandCount = 6
)

// SpeedBand is a half-open speed interval [Lower, Upper) in m/s. The last
// band of a histogram has Upper = +Inf.
type SpeedBand struct {
	Lower float64
	Upper float64
}

// Label formats the band the way the diagram legend shows it.
func (b SpeedBand) Label() string {
	upper := "inf"
	if !math.IsInf(b.Upper, 1) {
		upper = strconv.FormatFloat(b.Upper, 'f', 1, 64)
	}
	return fmt.Sprintf("[%s : %s)", strconv.FormatFloat(b.Lower, 'f', 1, 64), upper)
}

// Histogram counts observations with a known heading per sector and speed band.
type Histogram struct {
	Bands  []SpeedBand
	Counts [SectorCount][BandCount]int
	Total  int
}

// SectorOf returns the sector index for a heading. Sectors are centred on
// multiples of 45°; a heading on a boundary belongs to the clockwise sector.
func SectorOf(degrees float64) int {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return int(math.Floor((d+SectorWidth/2)/SectorWidth)) % SectorCount
}

// SectorCenter returns the heading at the middle of a sector.
func SectorCenter(sector int) float64 {
	return float64(sector) * SectorWidth
}

// BuildHistogram bins every record whose direction resolves. Band edges
// span the minimum to maximum speed of the whole set, so rows without a
// heading still shape the bands. No resolvable heading is a RenderError.
func BuildHistogram(set *RecordSet) (*Histogram, error) {
	if set.Len() == 0 {
		return nil, &RenderError{Reason: "dataset has no observations"}
	}

	h := &Histogram{Bands: speedBands(set.Records)}
	for _, r := range set.Records {
		deg, ok := Normalize(r.Direction)
		if !ok {
			continue
		}
		h.Counts[SectorOf(deg)][h.bandOf(r.Speed)]++
		h.Total++
	}

	if h.Total == 0 {
		return nil, &RenderError{Reason: "no observation has a known wind direction"}
	}
	return h, nil
}

// Frequency returns the share of all binned observations in one cell, in percent.
func (h *Histogram) Frequency(sector, band int) float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Counts[sector][band]) / float64(h.Total) * 100
}

// SectorFrequency returns the share of all binned observations in a sector, in percent.
func (h *Histogram) SectorFrequency(sector int) float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.sectorCount(sector)) / float64(h.Total) * 100
}

// BandShare returns the share of a sector's observations in one band, in
// percent. The shares of a non-empty sector sum to 100.
func (h *Histogram) BandShare(sector, band int) float64 {
	n := h.sectorCount(sector)
	if n == 0 {
		return 0
	}
	return float64(h.Counts[sector][band]) / float64(n) * 100
}

// MaxSectorFrequency returns the largest SectorFrequency.
func (h *Histogram) MaxSectorFrequency() float64 {
	var m float64
	for s := 0; s < SectorCount; s++ {
		m = math.Max(m, h.SectorFrequency(s))
	}
	return m
}

func (h *Histogram) sectorCount(sector int) int {
	n := 0
	for _, c := range h.Counts[sector] {
		n += c
	}
	return n
}

// bandOf returns the highest band whose lower edge does not exceed speed.
func (h *Histogram) bandOf(speed float64) int {
	for i := len(h.Bands) - 1; i > 0; i-- {
		if speed >= h.Bands[i].Lower {
			return i
		}
	}
	return 0
}

// speedBands spaces BandCount lower edges evenly from the minimum to the
// maximum speed; the last band is open-ended.
func speedBands(records []Record) []SpeedBand {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		lo = math.Min(lo, r.Speed)
		hi = math.Max(hi, r.Speed)
	}

	edges := make([]float64, BandCount)
	step := (hi - lo) / float64(BandCount-1)
	for i := range edges {
		edges[i] = lo + step*float64(i)
	}
	edges[BandCount-1] = hi

	bands := make([]SpeedBand, BandCount)
	for i := range bands {
		upper := math.Inf(1)
		if i+1 < BandCount {
			upper = edges[i+1]
		}
		bands[i] = SpeedBand{Lower: edges[i], Upper: upper}
	}
	return bands
}
