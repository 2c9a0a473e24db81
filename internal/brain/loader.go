package brain

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// Intervals maps each timeframe to the bar interval stored by acquisition
type Intervals map[contracts.Timeframe]string

// DefaultIntervals returns the KRX intervals used by the collector (15분/1시간/일봉)
func DefaultIntervals() Intervals {
	return Intervals{
		contracts.TimeframeShort:  "15m",
		contracts.TimeframeMedium: "1h",
		contracts.TimeframeLong:   "1d",
	}
}

// loadConcurrency bounds parallel bar queries against the pool
const loadConcurrency = 4

// Loader builds a batch request from an already-populated bar source
type Loader struct {
	source    contracts.BarSource
	intervals Intervals
	limit     int
	logger    *logger.Logger
}

// NewLoader creates a new loader; limit is the bar count read per timeframe
func NewLoader(source contracts.BarSource, intervals Intervals, limit int, log *logger.Logger) *Loader {
	if len(intervals) == 0 {
		intervals = DefaultIntervals()
	}
	return &Loader{
		source:    source,
		intervals: intervals,
		limit:     limit,
		logger:    log,
	}
}

// Load reads the series of every instrument at or before asOf.
// An empty instrument list loads every instrument the source knows.
// Timeframes with no bars are left out; the blender redistributes their weight.
func (l *Loader) Load(ctx context.Context, instruments []string, asOf time.Time) ([]contracts.InstrumentInput, error) {
	if len(instruments) == 0 {
		ids, err := l.source.ListInstruments(ctx, asOf)
		if err != nil {
			return nil, fmt.Errorf("list instruments: %w", err)
		}
		instruments = ids
	}

	inputs := make([]contracts.InstrumentInput, len(instruments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for i, id := range instruments {
		i, id := i, id
		g.Go(func() error {
			in := contracts.InstrumentInput{
				ID:     id,
				Series: make(map[contracts.Timeframe]contracts.TimeframeSeries, len(l.intervals)),
			}
			for _, tf := range contracts.AllTimeframes() {
				interval, ok := l.intervals[tf]
				if !ok {
					continue
				}
				series, err := l.source.LoadSeries(gctx, id, tf, interval, l.limit, asOf)
				if err != nil {
					return fmt.Errorf("load %s/%s: %w", id, interval, err)
				}
				if series.Len() > 0 {
					in.Series[tf] = series
				}
			}
			inputs[i] = in
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.WithFields(map[string]interface{}{
		"instruments": len(inputs),
		"as_of":       asOf.Format(time.RFC3339),
		"limit":       l.limit,
	}).Info("Loaded bar series")

	return inputs, nil
}
