package domain

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CalmMarker is the lower-case DD fragment for calm observations.
const CalmMarker = "штиль"

// compassPoint maps a genitive direction fragment to a heading.
// Calm and variable wind have no heading.
type compassPoint struct {
	phrase  string
	degrees float64
	defined bool
}

// directionTable lists the DD fragments in export order: calm, variable,
// then the 16 compass points clockwise from north.
var directionTable = []compassPoint{
	{phrase: CalmMarker},
	{phrase: "переменное"},
	{phrase: "севера", degrees: 0.0, defined: true},
	{phrase: "северо-северо-востока", degrees: 22.5, defined: true},
	{phrase: "северо-востока", degrees: 45.0, defined: true},
	{phrase: "востоко-северо-востока", degrees: 67.5, defined: true},
	{phrase: "востока", degrees: 90.0, defined: true},
	{phrase: "востоко-юго-востока", degrees: 112.5, defined: true},
	{phrase: "юго-востока", degrees: 135.0, defined: true},
	{phrase: "юго-юго-востока", degrees: 157.5, defined: true},
	{phrase: "юга", degrees: 180.0, defined: true},
	{phrase: "юго-юго-запада", degrees: 202.5, defined: true},
	{phrase: "юго-запада", degrees: 225.0, defined: true},
	{phrase: "западо-юго-запада", degrees: 247.5, defined: true},
	{phrase: "запада", degrees: 270.0, defined: true},
	{phrase: "западо-северо-запада", degrees: 292.5, defined: true},
	{phrase: "северо-запада", degrees: 315.0, defined: true},
	{phrase: "северо-северо-запада", degrees: 337.5, defined: true},
}

// matchOrder is directionTable with the longest fragments first. Compound
// names contain shorter ones ("западо-северо-запада" contains "запада" and
// "северо-запада"), so the first containment hit must be the most specific.
var matchOrder = func() []compassPoint {
	ordered := make([]compassPoint, len(directionTable))
	copy(ordered, directionTable)
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i].phrase) > utf8.RuneCountInString(ordered[j].phrase)
	})
	return ordered
}()

// CompassPhrases returns the 16 direction fragments clockwise from north.
func CompassPhrases() []string {
	var out []string
	for _, p := range directionTable {
		if p.defined {
			out = append(out, p.phrase)
		}
	}
	return out
}

// Normalize resolves a DD phrase to a heading in degrees clockwise from
// north. The boolean is false when the phrase is empty, marks calm or
// variable wind, or matches no compass point.
func Normalize(phrase string) (float64, bool) {
	p := foldPhrase(phrase)
	if p == "" {
		return math.NaN(), false
	}
	for _, cp := range matchOrder {
		if strings.Contains(p, cp.phrase) {
			if !cp.defined {
				return math.NaN(), false
			}
			return cp.degrees, true
		}
	}
	return math.NaN(), false
}

// Recognized reports whether a DD phrase contains any known fragment,
// including calm and variable wind.
func Recognized(phrase string) bool {
	p := foldPhrase(phrase)
	if p == "" {
		return false
	}
	for _, cp := range matchOrder {
		if strings.Contains(p, cp.phrase) {
			return true
		}
	}
	return false
}

// IsCalm reports whether a DD phrase marks a calm observation.
func IsCalm(phrase string) bool {
	return strings.Contains(foldPhrase(phrase), CalmMarker)
}

// foldPhrase lower-cases with Russian rules, composes combining marks and
// trims surrounding whitespace.
func foldPhrase(phrase string) string {
	// cases.Caser keeps state between calls and must not be shared.
	lower := cases.Lower(language.Russian).String(phrase)
	return strings.TrimSpace(norm.NFC.String(lower))
}
