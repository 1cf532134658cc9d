package windrose

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/render"
)

const export = `# Метеостанция Калининград (аэропорт)
# line 2
# line 3
# line 4
# line 5
# line 6
"Местное время в Калининграде (аэропорт)";"DD";"Ff"
"31.01.2024 21:00";"Ветер, дующий с севера";"5"
"31.01.2024 18:00";"Ветер, дующий с юго-востока";"3"
"31.01.2024 15:00";"Штиль, безветрие";"0"
"31.01.2024 12:00";"Ветер, дующий с юга";"oops"
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *observability.Metrics) {
	t.Helper()
	r, err := render.New(render.WithDiameter(200))
	require.NoError(t, err)
	m := observability.NewMetricsForTesting()
	return NewService(r, discardLogger(), m), m
}

func TestIngest_Success(t *testing.T) {
	svc, m := newTestService(t)

	set, err := svc.Ingest(strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, 1, set.Skipped)
	assert.Equal(t, "в Калининграде (аэропорт)", set.SourceLabel)

	assert.InDelta(t, 1, testutil.ToFloat64(m.UploadsParsed.WithLabelValues(outcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RowsSkipped), 0)
}

func TestIngest_MissingColumns(t *testing.T) {
	svc, m := newTestService(t)

	doc := strings.Replace(export, `"Ff"`, `"T"`, 1)
	_, err := svc.Ingest(strings.NewReader(doc))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{domain.SpeedColumn}, verr.Missing)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UploadsParsed.WithLabelValues(outcomeInvalid)), 0)
}

func TestIngest_Truncated(t *testing.T) {
	svc, m := newTestService(t)

	_, err := svc.Ingest(strings.NewReader("only\ntwo lines\n"))
	require.ErrorIs(t, err, domain.ErrNoHeader)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UploadsParsed.WithLabelValues(outcomeError)), 0)
}

func TestRender(t *testing.T) {
	svc, m := newTestService(t)

	set, err := svc.Ingest(strings.NewReader(export))
	require.NoError(t, err)

	d, err := svc.Render(set)
	require.NoError(t, err)
	assert.Equal(t, "33.3%", d.CalmPercent())
	assert.Equal(t, render.Caption, d.Caption)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Renders.WithLabelValues(outcomeSuccess)), 0)
}

func TestRender_Failure(t *testing.T) {
	svc, m := newTestService(t)

	_, err := svc.Render(nil)
	var rerr *domain.RenderError
	require.ErrorAs(t, err, &rerr)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Renders.WithLabelValues(outcomeError)), 0)
}
