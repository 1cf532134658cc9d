package domain

// Column names required in an export header.
const (
	DirectionColumn = "DD"
	SpeedColumn     = "Ff"
)

// Record is one observation: the DD phrase and the Ff speed in m/s.
// Direction is empty when the export left the field blank.
type Record struct {
	Direction string
	Speed     float64
}

// RecordSet is a parsed export. It is replaced as a whole on re-upload and
// never mutated after Parse returns.
type RecordSet struct {
	SourceLabel string
	Columns     []string
	Records     []Record
	Skipped     int
}

// Len returns the number of accepted observations.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Validate checks that the header carried both wind columns.
func (s *RecordSet) Validate() error {
	var cols []string
	if s != nil {
		cols = s.Columns
	}
	if missing := missingColumns(cols); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// CalmCount returns how many observations mark calm, case-insensitively.
func (s *RecordSet) CalmCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, r := range s.Records {
		if IsCalm(r.Direction) {
			n++
		}
	}
	return n
}

// CalmFraction returns CalmCount over all observations, including those
// whose direction does not resolve. An empty set is a RenderError.
func (s *RecordSet) CalmFraction() (float64, error) {
	total := s.Len()
	if total == 0 {
		return 0, &RenderError{Reason: "dataset has no observations"}
	}
	return float64(s.CalmCount()) / float64(total), nil
}

func missingColumns(cols []string) []string {
	var hasDir, hasSpeed bool
	for _, c := range cols {
		switch c {
		case DirectionColumn:
			hasDir = true
		case SpeedColumn:
			hasSpeed = true
		}
	}
	var missing []string
	if !hasDir {
		missing = append(missing, DirectionColumn)
	}
	if !hasSpeed {
		missing = append(missing, SpeedColumn)
	}
	return missing
}
