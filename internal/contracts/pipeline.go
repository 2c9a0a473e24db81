package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 메트릭 라벨에서 이 상수를 사용해야 함
//
// 파이프라인 흐름 (종목 단위):
//   S1 → S2 → S3 → S4 → S5 → S6 → S7
//   Indicators  Scoring  Robustness  Context  Master  Persistence  SpecialDay

// Stage represents a per-instrument pipeline stage
type Stage string

const (
	// StageIndicators S1: 타임프레임별 지표 추출
	// 위치: internal/s1_indicators/
	StageIndicators Stage = "S1_INDICATORS"

	// StageScoring S2: 타임프레임 점수, 모드별 블렌딩, 신뢰도
	// 위치: internal/s2_signals/
	StageScoring Stage = "S2_SCORING"

	// StageRobustness S3: 7개 필터 평가
	// 위치: internal/s3_robustness/
	StageRobustness Stage = "S3_ROBUSTNESS"

	// StageContext S4: 기관 컨텍스트 점수
	// 위치: internal/s4_context/
	StageContext Stage = "S4_CONTEXT"

	// StageMaster S5: 마스터 점수 및 티어
	// 위치: internal/selection/master.go
	StageMaster Stage = "S5_MASTER"

	// StagePersistence S6: 패턴 지속성 검증
	// 위치: internal/finalize/persistence.go
	StagePersistence Stage = "S6_PERSISTENCE"

	// StageSpecialDay S7: 만기일/이벤트일 조정
	// 위치: internal/finalize/special_day.go
	StageSpecialDay Stage = "S7_SPECIAL_DAY"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S1", "S2")
func (s Stage) ShortName() string {
	switch s {
	case StageIndicators:
		return "S1"
	case StageScoring:
		return "S2"
	case StageRobustness:
		return "S3"
	case StageContext:
		return "S4"
	case StageMaster:
		return "S5"
	case StagePersistence:
		return "S6"
	case StageSpecialDay:
		return "S7"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageIndicators,
		StageScoring,
		StageRobustness,
		StageContext,
		StageMaster,
		StagePersistence,
		StageSpecialDay,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
