package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorOf(t *testing.T) {
	cases := map[float64]int{
		0:     0,
		22.4:  0,
		22.5:  1, // boundary goes clockwise
		45:    1,
		90:    2,
		135:   3,
		157.5: 4,
		180:   4,
		225:   5,
		270:   6,
		315:   7,
		337.4: 7,
		337.5: 0,
		359.9: 0,
		360:   0,
		-45:   7,
	}
	for deg, want := range cases {
		assert.Equal(t, want, SectorOf(deg), "degrees %v", deg)
	}
}

func TestBuildHistogram_Scenario(t *testing.T) {
	set := &RecordSet{Records: []Record{
		{Direction: "севера", Speed: 5},
		{Direction: "юго-востока", Speed: 3},
		{Direction: "штиль", Speed: 0},
	}}

	h, err := BuildHistogram(set)
	require.NoError(t, err)

	assert.Equal(t, 2, h.Total)
	require.Len(t, h.Bands, BandCount)
	assert.Equal(t, 0.0, h.Bands[0].Lower)
	assert.Equal(t, 5.0, h.Bands[BandCount-1].Lower)
	assert.True(t, math.IsInf(h.Bands[BandCount-1].Upper, 1))

	// 5 m/s is the maximum and falls in the open band; 3 m/s in [3.0 : 4.0).
	assert.Equal(t, 1, h.Counts[0][5])
	assert.Equal(t, 1, h.Counts[3][3])
	assert.InDelta(t, 50.0, h.SectorFrequency(0), 1e-9)
	assert.InDelta(t, 50.0, h.SectorFrequency(3), 1e-9)
	assert.InDelta(t, 100.0, h.BandShare(3, 3), 1e-9)
}

func TestBuildHistogram_ProportionsSum(t *testing.T) {
	set := &RecordSet{}
	dirs := []string{"севера", "северо-востока", "востока", "юга", "запада", "северо-запада"}
	for i := 0; i < 60; i++ {
		set.Records = append(set.Records, Record{Direction: dirs[i%len(dirs)], Speed: float64(i % 11)})
	}

	h, err := BuildHistogram(set)
	require.NoError(t, err)

	var total float64
	for s := 0; s < SectorCount; s++ {
		var share float64
		for b := 0; b < BandCount; b++ {
			total += h.Frequency(s, b)
			share += h.BandShare(s, b)
		}
		if h.SectorFrequency(s) > 0 {
			assert.InDelta(t, 100.0, share, 1e-9, "sector %d", s)
		} else {
			assert.Zero(t, share)
		}
	}
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestBuildHistogram_AllUndefined(t *testing.T) {
	set := &RecordSet{Records: []Record{
		{Direction: "Штиль, безветрие"},
		{Direction: "Переменное направление", Speed: 2},
		{Direction: "", Speed: 1},
	}}

	_, err := BuildHistogram(set)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
}

func TestBuildHistogram_Empty(t *testing.T) {
	_, err := BuildHistogram(&RecordSet{})
	var rerr *RenderError
	assert.ErrorAs(t, err, &rerr)
}

func TestBuildHistogram_ConstantSpeed(t *testing.T) {
	set := &RecordSet{Records: []Record{
		{Direction: "юга", Speed: 2},
		{Direction: "юга", Speed: 2},
	}}

	h, err := BuildHistogram(set)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Counts[4][BandCount-1])
}

func TestSpeedBand_Label(t *testing.T) {
	assert.Equal(t, "[0.0 : 2.4)", SpeedBand{Lower: 0, Upper: 2.4}.Label())
	assert.Equal(t, "[12.0 : inf)", SpeedBand{Lower: 12, Upper: math.Inf(1)}.Label())
}

func TestBuildHistogram_Deterministic(t *testing.T) {
	set := &RecordSet{Records: []Record{
		{Direction: "северо-северо-запада", Speed: 7},
		{Direction: "западо-юго-запада", Speed: 1},
		{Direction: "юго-юго-востока", Speed: 4},
	}}

	a, err := BuildHistogram(set)
	require.NoError(t, err)
	b, err := BuildHistogram(set)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
