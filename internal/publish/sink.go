package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// MultiSink fans opportunities out to every configured logger.
// A failing sink does not stop the others; errors are joined.
type MultiSink struct {
	sinks []contracts.OpportunityLogger
}

// NewMultiSink creates a fan-out sink, skipping nil entries
func NewMultiSink(sinks ...contracts.OpportunityLogger) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// LogOpportunities writes to every sink
func (m *MultiSink) LogOpportunities(ctx context.Context, opps []contracts.Opportunity) error {
	var errs []error
	for i, s := range m.sinks {
		if err := s.LogOpportunities(ctx, opps); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// LogSink writes one structured log line per opportunity (no external store configured)
type LogSink struct {
	logger *logger.Logger
}

// NewLogSink creates a logging sink
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

// LogOpportunities logs every record at Info
func (s *LogSink) LogOpportunities(ctx context.Context, opps []contracts.Opportunity) error {
	for _, o := range opps {
		s.logger.WithFields(map[string]interface{}{
			"run_id":     o.RunID,
			"instrument": o.Instrument,
			"direction":  o.Direction,
			"master":     o.MasterScore,
			"tier":       o.Tier,
			"failures":   o.FilterFailures,
		}).Info("Opportunity")
	}
	return nil
}

var (
	_ contracts.OpportunityLogger = (*MultiSink)(nil)
	_ contracts.OpportunityLogger = (*LogSink)(nil)
)
