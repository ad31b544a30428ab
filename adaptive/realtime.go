//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package adaptive

// AnswerSample is one answer given in the current attempt, oldest first.
type AnswerSample struct {
	Correct   bool
	TimeSpent int
	HintsUsed int
}

// Direction of a real-time adjustment.
const (
	AdjustEasier   = "easier"
	AdjustMaintain = "maintain"
	AdjustHarder   = "harder"
)

// Adjustment is the real-time recommendation for the rest of the attempt.
type Adjustment struct {
	Direction string  `json:"direction"`
	Score     float64 `json:"adjustmentScore"`
}

const (
	adjustThreshold = 0.7
	// lateAttemptDamping softens adjustments near the end of the attempt.
	lateAttemptDamping = 0.7
)

// Adjust computes the intra-quiz difficulty adjustment from the answers given
// so far and the number of remaining questions. Fewer than two answers always
// maintains the current difficulty.
func Adjust(answers []AnswerSample, remainingQuestions int) Adjustment {
	n := len(answers)
	if n < 2 {
		return Adjustment{Direction: AdjustMaintain}
	}

	recent := answers[n-min(5, n):]

	overallAccuracy := accuracy(answers)
	recentAccuracy := accuracy(recent)
	averageTime := averageTimeSpent(answers)
	recentAverageTime := averageTimeSpent(recent)
	hintRate := hintUsageRate(answers)
	consistency := windowConsistency(answers)
	trend := accuracyTrend(answers)

	var score float64
	switch {
	case recentAccuracy >= 0.8:
		score += 0.4
	case recentAccuracy <= 0.4:
		score -= 0.4
	}
	switch {
	case overallAccuracy >= 0.75:
		score += 0.2
	case overallAccuracy <= 0.5:
		score -= 0.2
	}
	score += 0.15 * speedFactor(averageTime, recentAverageTime)
	switch {
	case hintRate >= 0.5:
		score -= 0.15
	case hintRate <= 0.2:
		score += 0.1
	}
	score += 0.1 * consistency
	score += 0.1 * trend

	if remainingQuestions <= 3 {
		score *= lateAttemptDamping
	}
	score = clamp(score, -1, 1)

	// A direction change needs at least three answers of signal and enough
	// questions left to matter.
	direction := AdjustMaintain
	if n >= 3 && remainingQuestions >= 3 {
		if score >= adjustThreshold {
			direction = AdjustHarder
		} else if score <= -adjustThreshold {
			direction = AdjustEasier
		}
	}
	return Adjustment{Direction: direction, Score: score}
}

// speedFactor rewards answering faster than the running average and under
// 90 seconds, and penalizes recent answers slower than 135 seconds.
func speedFactor(averageTime, recentAverageTime float64) float64 {
	switch {
	case recentAverageTime < averageTime && recentAverageTime < 90:
		return 0.5
	case recentAverageTime > 135:
		return -0.5
	default:
		return 0
	}
}

func accuracy(answers []AnswerSample) float64 {
	if len(answers) == 0 {
		return 0
	}
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(answers))
}

func averageTimeSpent(answers []AnswerSample) float64 {
	if len(answers) == 0 {
		return 0
	}
	var total float64
	for _, a := range answers {
		total += float64(a.TimeSpent)
	}
	return total / float64(len(answers))
}

func hintUsageRate(answers []AnswerSample) float64 {
	if len(answers) == 0 {
		return 0
	}
	var total float64
	for _, a := range answers {
		total += float64(a.HintsUsed)
	}
	return total / float64(len(answers))
}

// windowConsistency maps the variance of sliding-window accuracies onto
// [0,1]. With fewer answers than one full window the sequence counts as a
// single window, which is perfectly consistent.
func windowConsistency(answers []AnswerSample) float64 {
	const window = 5
	if len(answers) <= window {
		return 1
	}
	var accuracies []float64
	for i := 0; i+window <= len(answers); i++ {
		accuracies = append(accuracies, accuracy(answers[i:i+window]))
	}
	return clamp(1-2*populationVariance(accuracies), 0, 1)
}

// accuracyTrend compares the accuracy of the second half against the first,
// requiring at least two answers per half.
func accuracyTrend(answers []AnswerSample) float64 {
	n := len(answers)
	if n < 4 {
		return 0
	}
	half := n / 2
	return accuracy(answers[n-half:]) - accuracy(answers[:half])
}
