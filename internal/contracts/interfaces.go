package contracts

import "context"

// Scorer runs the full per-instrument pipeline over a batch
// ⭐ SSOT: 배치 스코어링 인터페이스
type Scorer interface {
	Run(ctx context.Context, req BatchRequest) (*BatchResult, error)
}

// Ranker orders emitted signals by the requested key
type Ranker interface {
	Rank(signals []Signal, by RankBy) []RankedSignal
}
