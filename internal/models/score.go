package models

// Credit score bounds and the approval threshold
const (
	MinScore      = 1
	MaxScore      = 10
	ApprovalScore = 6
)

// ScoreResult is the verdict of a credit bureau. It is never persisted.
type ScoreResult struct {
	Score    int    `json:"score"`
	Eligible bool   `json:"eligible"`
	Message  string `json:"message"`
}

// NewScoreResult derives eligibility and the qualitative message from a score
func NewScoreResult(score int) ScoreResult {
	return ScoreResult{
		Score:    score,
		Eligible: score >= ApprovalScore,
		Message:  scoreMessage(score),
	}
}

func scoreMessage(score int) string {
	switch {
	case score >= 9:
		return "excellent credit rating"
	case score >= 7:
		return "good credit rating"
	case score >= 6:
		return "acceptable credit rating"
	case score >= 4:
		return "regular credit rating - not eligible for loans"
	default:
		return "poor credit rating - not eligible for loans"
	}
}
