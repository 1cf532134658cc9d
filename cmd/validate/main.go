// Command validate checks rp5 wind exports before they are shared with the
// bot: structure, row quality, direction vocabulary, and that a diagram can
// be built. Each file is reported phase by phase.
//
// Usage:
//
//	go run ./cmd/validate -max-skipped 0.05 exports/*.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/couchcryptid/windrose-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	maxSkipped := flag.Float64("max-skipped", 0.05, "maximum share of rows that may be skipped")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(flag.Args(), *maxSkipped, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(paths []string, maxSkipped float64, out io.Writer) int {
	fmt.Fprintln(out, "=== Wind Export Validation ===")

	allPassed := true
	for _, path := range paths {
		if !validateFile(path, maxSkipped, out) {
			allPassed = false
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateFile(path string, maxSkipped float64, out io.Writer) bool {
	fmt.Fprintf(out, "\n%s\n", path)

	set, structure := validateStructure(path)
	phases := []*phase{structure}
	if set != nil {
		phases = append(phases,
			validateRows(set, maxSkipped),
			validateDirections(set),
			validateDiagram(set),
		)
	}

	passed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			passed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}

	if set != nil {
		calm := 0.0
		if set.Len() > 0 {
			calm = float64(set.CalmCount()) / float64(set.Len()) * 100
		}
		fmt.Fprintf(out, "  Records: %d accepted, %d skipped, %.1f%% calm, station %q\n",
			set.Len(), set.Skipped, calm, set.SourceLabel)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "  --- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "    [%d] %s\n", i+1, e)
		}
	}
	return passed
}

// ── Phase 1: Structure ──
// The file parses and carries the wind columns.

func validateStructure(path string) (*domain.RecordSet, *phase) {
	p := &phase{name: "Phase 1: Structure"}

	f, err := os.Open(path)
	if err != nil {
		p.errorf("open: %v", err)
		return nil, p
	}
	defer f.Close()

	set, err := domain.Parse(f)
	if err != nil {
		p.errorf("parse: %v", err)
		return nil, p
	}
	if set.SourceLabel == "" {
		p.errorf("first header cell %q carries no station label", set.Columns[0])
	}
	return set, p
}

// ── Phase 2: Rows ──
// Few rows are dropped and every accepted speed is physically plausible.

func validateRows(set *domain.RecordSet, maxSkipped float64) *phase {
	p := &phase{name: "Phase 2: Rows"}

	total := set.Len() + set.Skipped
	if total == 0 {
		p.errorf("no data rows")
		return p
	}
	if share := float64(set.Skipped) / float64(total); share > maxSkipped {
		p.errorf("%d of %d rows skipped (%.1f%% > %.1f%%)", set.Skipped, total, share*100, maxSkipped*100)
	}
	for i, rec := range set.Records {
		if rec.Speed < 0 || rec.Speed > 75 {
			p.errorf("record %d: implausible speed %g m/s", i+1, rec.Speed)
		}
	}
	return p
}

// ── Phase 3: Directions ──
// Every DD phrase is a compass point, calm, or variable wind.

func validateDirections(set *domain.RecordSet) *phase {
	p := &phase{name: "Phase 3: Directions"}

	unknown := map[string]int{}
	for _, rec := range set.Records {
		if rec.Direction != "" && !domain.Recognized(rec.Direction) {
			unknown[rec.Direction]++
		}
	}

	phrases := make([]string, 0, len(unknown))
	for phrase := range unknown {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)
	for _, phrase := range phrases {
		p.errorf("unrecognized direction %q (%d rows)", phrase, unknown[phrase])
	}
	return p
}

// ── Phase 4: Diagram ──
// A wind rose can be built from the records.

func validateDiagram(set *domain.RecordSet) *phase {
	p := &phase{name: "Phase 4: Diagram"}

	if _, err := set.CalmFraction(); err != nil {
		p.errorf("calm share: %v", err)
	}
	hist, err := domain.BuildHistogram(set)
	if err != nil {
		p.errorf("histogram: %v", err)
		return p
	}
	if hist.Total < set.Len()/2 {
		p.errorf("only %d of %d records have a resolvable direction", hist.Total, set.Len())
	}
	return p
}
