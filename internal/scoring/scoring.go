// Package scoring holds the points and percentage rules for quiz attempts.
package scoring

import "math"

const (
	// BasePoints is awarded for every correct answer.
	BasePoints = 10
	// BonusDivisor turns remaining question seconds into bonus points.
	BonusDivisor = 4
)

// Points returns the score for one answer. Faster correct answers earn up to
// floor(questionRemaining/4) bonus points on top of the base.
func Points(correct bool, questionRemaining int) int {
	if !correct {
		return 0
	}
	if questionRemaining < 0 {
		questionRemaining = 0
	}
	return BasePoints + questionRemaining/BonusDivisor
}

// Percentage rates a final score against the base-only maximum
// (questionCount * BasePoints). Speed bonuses can push the raw ratio past
// 100, so the result is clamped to [0, 100].
func Percentage(score, questionCount int) int {
	if questionCount <= 0 {
		return 0
	}
	possible := float64(questionCount * BasePoints)
	return ClampPercentage(int(math.Round(float64(score) / possible * 100)))
}

// ClampPercentage bounds pct to [0, 100].
func ClampPercentage(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
