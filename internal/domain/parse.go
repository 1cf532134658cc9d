package domain

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MetadataLines is the number of lines preceding the column header.
const MetadataLines = 6

// Parse reads an rp5 semicolon export. Missing DD or Ff columns yield a
// *ValidationError; rows with the wrong field count or a non-numeric speed
// are skipped and counted in RecordSet.Skipped.
func Parse(r io.Reader) (*RecordSet, error) {
	br := bufio.NewReader(r)
	for i := 0; i < MetadataLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoHeader
			}
			return nil, fmt.Errorf("read metadata line %d: %w", i+1, err)
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read column header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	set := &RecordSet{
		SourceLabel: sourceLabel(header[0]),
		Columns:     header,
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	dirIdx, speedIdx := columnIndex(header, DirectionColumn), columnIndex(header, SpeedColumn)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				set.Skipped++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec, ok := parseRow(row, len(header), dirIdx, speedIdx)
		if !ok {
			set.Skipped++
			continue
		}
		set.Records = append(set.Records, rec)
	}

	return set, nil
}

// ParseBytes is Parse over an in-memory upload.
func ParseBytes(b []byte) (*RecordSet, error) {
	return Parse(bytes.NewReader(b))
}

func parseRow(row []string, width, dirIdx, speedIdx int) (Record, bool) {
	if len(row) != width {
		return Record{}, false
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(row[speedIdx]), 64)
	if err != nil || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return Record{}, false
	}
	return Record{
		Direction: strings.TrimSpace(row[dirIdx]),
		Speed:     speed,
	}, true
}

// columnIndex returns the first position of name in header, or -1.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// sourceLabel drops the first two words of the first header cell,
// e.g. "Местное время в Калининграде (аэропорт)" -> "в Калининграде (аэропорт)".
func sourceLabel(cell string) string {
	fields := strings.Fields(cell)
	if len(fields) < 3 {
		return ""
	}
	return strings.Join(fields[2:], " ")
}
