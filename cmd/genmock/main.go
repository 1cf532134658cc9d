// Command genmock writes a synthetic rp5 wind export for tests and demos.
// Output is reproducible for a given seed and end date.
//
// Usage:
//
//	go run ./cmd/genmock -out internal/pipeline/testdata/synthetic.csv -days 30 -seed 7
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/windrose-service/internal/domain"
)

// endDate anchors generated timestamps so fixtures do not drift between runs.
var endDate = time.Date(2024, time.January, 31, 21, 0, 0, 0, time.UTC)

// Observations are three-hourly, newest first, as rp5 exports them.
const (
	obsPerDay   = 8
	obsInterval = 3 * time.Hour
)

type options struct {
	station  string
	days     int
	seed     uint64
	calm     float64 // share of calm observations
	variable float64 // share of variable-direction observations
	bad      float64 // share of rows with an unparsable speed
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated CSV")
	opts := options{}
	flag.StringVar(&opts.station, "station", "Калининград (аэропорт)", "station name used in the header")
	flag.IntVar(&opts.days, "days", 31, "number of days to generate")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flag.Float64Var(&opts.calm, "calm", 0.08, "share of calm observations")
	flag.Float64Var(&opts.variable, "variable", 0.02, "share of variable-direction observations")
	flag.Float64Var(&opts.bad, "bad", 0.01, "share of rows with a missing speed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if opts.days <= 0 {
		return fmt.Errorf("-days must be positive")
	}

	domain.SetClock(clockwork.NewFakeClockAt(endDate))
	defer domain.SetClock(nil)

	var buf bytes.Buffer
	if err := generate(&buf, opts); err != nil {
		return err
	}

	// Round-trip through the real parser so the fixture is known to load.
	set, err := domain.ParseBytes(buf.Bytes())
	if err != nil {
		return fmt.Errorf("generated export does not parse: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return err
	}
	log.Printf("wrote %s: %d records, %d skipped, %d calm", *out, set.Len(), set.Skipped, set.CalmCount())
	return nil
}

// generate writes an export ending at domain.Now(). Prevailing winds are
// westerly with a south-westerly secondary mode.
func generate(w io.Writer, opts options) error {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	phrases := domain.CompassPhrases()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Метеостанция %s, Россия\n", opts.station)
	fmt.Fprintln(bw, "# Все данные представлены в местном времени")
	fmt.Fprintln(bw, "# Источник: rp5.ru")
	end := domain.Now()
	start := end.Add(-time.Duration(opts.days*obsPerDay-1) * obsInterval)
	fmt.Fprintf(bw, "# Период: %s - %s\n", start.Format("02.01.2006"), end.Format("02.01.2006"))
	fmt.Fprintln(bw, "# Ряд наблюдений")
	fmt.Fprintln(bw, "#")
	fmt.Fprintf(bw, "\"Местное время в %s\";\"T\";\"P\";\"DD\";\"Ff\";\"N\";\n", opts.station)

	for i := 0; i < opts.days*obsPerDay; i++ {
		ts := end.Add(-time.Duration(i) * obsInterval)
		temp := -2 + 4*math.Sin(float64(i)/obsPerDay*2*math.Pi) + rng.NormFloat64()
		pressure := 755 + 6*rng.NormFloat64()

		var dd, ff string
		switch r := rng.Float64(); {
		case r < opts.calm:
			dd, ff = "Штиль, безветрие", "0"
		case r < opts.calm+opts.variable:
			dd, ff = "Переменное направление", strconv.Itoa(1+rng.IntN(2))
		default:
			dd = "Ветер, дующий с " + phrases[prevailing(rng)]
			ff = strconv.Itoa(max(1, int(math.Round(math.Abs(4+2.5*rng.NormFloat64())))))
		}
		if rng.Float64() < opts.bad {
			ff = ""
		}

		fmt.Fprintf(bw, "\"%s\";\"%.1f\";\"%.1f\";\"%s\";\"%s\";\"100%%.\";\n",
			ts.Format("02.01.2006 15:04"), temp, pressure, dd, ff)
	}
	return bw.Flush()
}

// prevailing draws a compass point index biased towards W and SW.
func prevailing(rng *rand.Rand) int {
	center := 12 // west
	if rng.Float64() < 0.35 {
		center = 10 // south-west
	}
	offset := int(math.Round(rng.NormFloat64() * 2))
	return ((center+offset)%16 + 16) % 16
}
