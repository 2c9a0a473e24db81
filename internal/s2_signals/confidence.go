package s2_signals

import (
	"math"
	"time"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// ConfidenceEstimator derives a 0-100 reliability estimate from three pillars:
// indicator agreement, momentum conviction, volume support.
type ConfidenceEstimator struct {
	cfg    strategyconfig.Confidence
	logger *logger.Logger
}

// NewConfidenceEstimator creates a new confidence estimator
func NewConfidenceEstimator(cfg strategyconfig.Confidence, log *logger.Logger) *ConfidenceEstimator {
	return &ConfidenceEstimator{
		cfg:    cfg,
		logger: log,
	}
}

// Estimate computes confidence of a directional call from blended indicators.
// event may be nil; asOf anchors the event window.
func (c *ConfidenceEstimator) Estimate(set contracts.IndicatorSet, dir contracts.Direction, event *contracts.EventRisk, asOf time.Time) contracts.ConfidenceValue {
	agreement := c.agreement(set, dir)
	momentum := c.momentum(set, dir)
	volume := c.volumeSupport(set, dir)

	raw := 100 * (c.cfg.AgreementWeight*agreement +
		c.cfg.MomentumWeight*momentum +
		c.cfg.VolumeWeight*volume)

	penalty := 0.0
	if c.nearEvent(event, asOf) {
		penalty = c.cfg.EventPenalty
	}

	value := contracts.ConfidenceValue{
		Value:          contracts.Clamp(raw-penalty, 0, 100),
		Agreement:      agreement,
		Momentum:       momentum,
		VolumeSupport:  volume,
		EventPenalty:   penalty,
		SpecialDayMult: 1.0,
	}

	c.logger.WithFields(map[string]interface{}{
		"stage":      contracts.StageScoring.ShortName(),
		"direction":  dir,
		"agreement":  agreement,
		"momentum":   momentum,
		"volume":     volume,
		"penalty":    penalty,
		"confidence": value.Value,
	}).Debug("Estimated confidence")

	return value
}

// agreement is the share of the whole indicator set that is material and agrees with the direction.
// A neutral direction yields 0.
func (c *ConfidenceEstimator) agreement(set contracts.IndicatorSet, dir contracts.Direction) float64 {
	want := dir.Sign()
	if want == 0 {
		return 0
	}
	names := contracts.AllIndicators()
	agreeing := 0
	for _, name := range names {
		v := set.Get(name)
		if math.Abs(v) > c.cfg.Materiality && v*want > 0 {
			agreeing++
		}
	}
	return float64(agreeing) / float64(len(names))
}

// momentum is the direction-aligned mean of the momentum-class indicators.
// Momentum running against the call contributes 0.
func (c *ConfidenceEstimator) momentum(set contracts.IndicatorSet, dir contracts.Direction) float64 {
	names := contracts.MomentumIndicators()
	sum := 0.0
	for _, name := range names {
		sum += set.Get(name)
	}
	return contracts.Clamp(sum/float64(len(names))*dir.Sign(), 0, 1)
}

// volumeSupport averages the direction-aligned volume surge and VWAP-side confirmation
func (c *ConfidenceEstimator) volumeSupport(set contracts.IndicatorSet, dir contracts.Direction) float64 {
	want := dir.Sign()
	surge := math.Max(0, set.Get(contracts.IndicatorVolumeSurge)*want)

	vwapConfirm := 0.0
	if set.Get(contracts.IndicatorVWAP)*want > 0 {
		vwapConfirm = 1
	}
	return contracts.Clamp((surge+vwapConfirm)/2, 0, 1)
}

// nearEvent checks if a scheduled event falls within the window on either side of asOf
func (c *ConfidenceEstimator) nearEvent(event *contracts.EventRisk, asOf time.Time) bool {
	if event == nil || event.ScheduledAt.IsZero() || c.cfg.EventWindowHours <= 0 {
		return false
	}
	window := time.Duration(c.cfg.EventWindowHours) * time.Hour
	delta := event.ScheduledAt.Sub(asOf)
	return delta >= -window && delta <= window
}
