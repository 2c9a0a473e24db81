package s1_indicators

import (
	"errors"

	"github.com/wonny/aegis-signal/internal/contracts"
)

// TimeframeSet is one instrument's extraction across every usable timeframe
type TimeframeSet struct {
	Instrument string
	Primary    contracts.Timeframe // snapshot source for filters and context
	Results    map[contracts.Timeframe]*Extraction
	Dropped    map[contracts.Timeframe]error // supplied but too short, treated as missing
}

// Indicators returns the per-timeframe indicator sets
func (s *TimeframeSet) Indicators() map[contracts.Timeframe]contracts.IndicatorSet {
	out := make(map[contracts.Timeframe]contracts.IndicatorSet, len(s.Results))
	for tf, ex := range s.Results {
		out[tf] = ex.Indicators
	}
	return out
}

// Snapshot returns the raw snapshot of the primary timeframe
func (s *TimeframeSet) Snapshot() MarketSnapshot {
	return s.Results[s.Primary].Snapshot
}

// Snapshots returns raw snapshots keyed by timeframe
func (s *TimeframeSet) Snapshots() map[contracts.Timeframe]MarketSnapshot {
	out := make(map[contracts.Timeframe]MarketSnapshot, len(s.Results))
	for tf, ex := range s.Results {
		out[tf] = ex.Snapshot
	}
	return out
}

// ExtractAll runs Extract on every supplied timeframe of an instrument.
//
// 규칙:
//   - 잘못된 바 데이터(InvalidInputError)는 종목 전체 실패
//   - 바가 부족한 타임프레임은 누락으로 처리 (블렌더가 가중치 재분배)
//   - 사용 가능한 타임프레임이 하나도 없으면 DataInsufficientError
//   - preferred 타임프레임이 없으면 짧은 쪽부터 첫 번째 사용 가능한 타임프레임이 primary
func (e *Extractor) ExtractAll(in *contracts.InstrumentInput, preferred contracts.Timeframe) (*TimeframeSet, error) {
	set := &TimeframeSet{
		Instrument: in.ID,
		Results:    make(map[contracts.Timeframe]*Extraction),
		Dropped:    make(map[contracts.Timeframe]error),
	}

	var firstShortfall error
	for _, tf := range contracts.AllTimeframes() {
		if !in.Has(tf) {
			continue
		}
		series := in.Series[tf]
		if series.Timeframe == "" {
			series.Timeframe = tf
		}

		ex, err := e.Extract(in.ID, series)
		if err != nil {
			var insufficient *contracts.DataInsufficientError
			if !errors.As(err, &insufficient) {
				return nil, err
			}
			set.Dropped[tf] = err
			if firstShortfall == nil || tf == preferred {
				firstShortfall = err
			}
			continue
		}
		set.Results[tf] = ex
	}

	if len(set.Results) == 0 {
		if firstShortfall != nil {
			return nil, firstShortfall
		}
		return nil, &contracts.DataInsufficientError{
			Instrument: in.ID,
			Timeframe:  preferred,
			Required:   e.MinBars(),
			Available:  0,
		}
	}

	if _, ok := set.Results[preferred]; ok {
		set.Primary = preferred
	} else {
		for _, tf := range contracts.AllTimeframes() {
			if _, ok := set.Results[tf]; ok {
				set.Primary = tf
				break
			}
		}
	}

	if len(set.Dropped) > 0 {
		e.logger.WithFields(map[string]interface{}{
			"instrument": in.ID,
			"dropped":    len(set.Dropped),
			"primary":    set.Primary,
		}).Debug("Timeframes dropped for insufficient bars")
	}

	return set, nil
}
