// Package windrose ties export parsing and diagram rendering to the
// service's logging and metrics. The bot handler, the HTTP endpoint and the
// CLI all go through it.
package windrose

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/render"
)

// Parse outcomes recorded on the uploads metric.
const (
	outcomeSuccess = "success"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Service parses uploads and renders diagrams.
type Service struct {
	renderer *render.Renderer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a Service drawing with renderer.
func NewService(renderer *render.Renderer, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Ingest parses an rp5 export.
func (s *Service) Ingest(r io.Reader) (*domain.RecordSet, error) {
	set, err := domain.Parse(r)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.metrics.UploadsParsed.WithLabelValues(outcomeInvalid).Inc()
			s.logger.Info("upload rejected", "missing_columns", verr.Missing)
		} else {
			s.metrics.UploadsParsed.WithLabelValues(outcomeError).Inc()
			s.logger.Warn("upload parse failed", "error", err)
		}
		return nil, err
	}

	s.metrics.UploadsParsed.WithLabelValues(outcomeSuccess).Inc()
	s.metrics.RowsSkipped.Add(float64(set.Skipped))
	s.logger.Info("upload parsed",
		"records", set.Len(),
		"skipped", set.Skipped,
		"source", set.SourceLabel,
	)
	return set, nil
}

// Render draws the wind rose for set.
func (s *Service) Render(set *domain.RecordSet) (*render.Diagram, error) {
	start := time.Now()
	d, err := s.renderer.Render(set)
	if err != nil {
		s.metrics.Renders.WithLabelValues(outcomeError).Inc()
		s.logger.Warn("render failed", "error", err, "records", set.Len())
		return nil, err
	}

	s.metrics.Renders.WithLabelValues(outcomeSuccess).Inc()
	s.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("diagram rendered",
		"records", set.Len(),
		"binned", d.Histogram.Total,
		"calm", d.CalmPercent(),
		"bytes", len(d.PNG),
	)
	return d, nil
}
