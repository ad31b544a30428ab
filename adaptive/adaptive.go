//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package adaptive synthesizes per-user difficulty distributions from
// historical performance and adjusts difficulty within a running attempt.
package adaptive

import (
	"math"
	"sort"
	"time"

	"github.com/quizforge/quizcore/quiz"
)

// ScoreSample is one historical quiz score.
type ScoreSample struct {
	Date       time.Time
	Score      float64
	QuizID     string
	Difficulty quiz.Difficulty
}

// SubjectPerformance is the per-subject slice of a user's history.
type SubjectPerformance struct {
	AverageScore float64
	TotalQuizzes int
	LastQuizDate time.Time
}

// TopicAccuracy is a per-topic accuracy percentage.
type TopicAccuracy struct {
	Topic    string
	Accuracy float64
}

// PerformanceData is the shaped input of the offline recommender. It is
// assembled from the performance history by the synthesis orchestrator.
type PerformanceData struct {
	// GlobalAverage is the average score across all subjects.
	GlobalAverage float64
	// TotalQuizzes is the total completed quiz count across all subjects.
	TotalQuizzes int
	// Subject is the record for the target subject, nil when the user has
	// no history there.
	Subject *SubjectPerformance
	// Recent holds the most recent subject scores, newest first.
	Recent []ScoreSample
	// Topics holds per-topic accuracies for the target subject.
	Topics []TopicAccuracy
}

// Factors are the four numeric signals driving the distribution.
type Factors struct {
	PerformanceScore   int `json:"performanceScore"`
	ConsistencyScore   int `json:"consistencyScore"`
	ImprovementTrend   int `json:"improvementTrend"`
	SubjectFamiliarity int `json:"subjectFamiliarity"`
}

// Confidence levels for a recommendation.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Recommendation is the offline recommender output.
type Recommendation struct {
	Distribution    quiz.DifficultyDistribution `json:"distribution"`
	Reasoning       []string                    `json:"reasoning"`
	ConfidenceLevel string                      `json:"confidenceLevel"`
	SuggestedTopics []string                    `json:"suggestedTopics,omitempty"`
	Factors         Factors                     `json:"factors"`
}

// Recommend computes the difficulty distribution for the next quiz. When
// requested names a fixed level the fixed-level tables apply; otherwise the
// performance-bucketed baseline is adjusted by consistency, trend and
// familiarity. The returned distribution always sums to 100.
func Recommend(data *PerformanceData, requested quiz.Difficulty) *Recommendation {
	f := Factors{
		PerformanceScore:   performanceScore(data),
		ConsistencyScore:   consistencyScore(data.Recent),
		ImprovementTrend:   improvementTrend(data.Recent),
		SubjectFamiliarity: subjectFamiliarity(data),
	}

	rec := &Recommendation{
		Factors:         f,
		ConfidenceLevel: confidence(data),
		SuggestedTopics: suggestedTopics(data.Topics),
	}

	if requested.IsLevel() {
		rec.Distribution = fixedLevelDistribution(requested, f.PerformanceScore)
		rec.Reasoning = []string{"fixed " + string(requested) + " difficulty requested, tuned by performance"}
		return rec
	}

	dist, reasoning := adaptiveDistribution(f)
	rec.Distribution = dist
	rec.Reasoning = reasoning
	return rec
}

// performanceScore blends the global and subject averages when the subject
// has at least two attempts.
func performanceScore(data *PerformanceData) int {
	if data.Subject != nil && data.Subject.TotalQuizzes >= 2 {
		return int(math.Round(0.3*data.GlobalAverage + 0.7*data.Subject.AverageScore))
	}
	return int(math.Round(data.GlobalAverage))
}

// consistencyScore maps the stdev of the five most recent scores onto
// [0,100]. Fewer than two scores yields the neutral 50.
func consistencyScore(recent []ScoreSample) int {
	scores := recentScores(recent, 5)
	if len(scores) < 2 {
		return 50
	}
	stdev := math.Sqrt(populationVariance(scores))
	return int(clamp(100-2.5*stdev, 0, 100))
}

// improvementTrend compares the two newest scores against the older tail of
// the five most recent, clamped to ±50.
func improvementTrend(recent []ScoreSample) int {
	sorted := append([]ScoreSample(nil), recent...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	if len(sorted) < 3 {
		return 0
	}
	newest := mean([]float64{sorted[0].Score, sorted[1].Score})
	var older []float64
	for _, s := range sorted[2:] {
		older = append(older, s.Score)
	}
	trend := newest - mean(older)
	return int(clamp(trend, -50, 50))
}

// subjectFamiliarity blends attempt count and recency for the subject.
func subjectFamiliarity(data *PerformanceData) int {
	if data.Subject == nil || data.Subject.TotalQuizzes == 0 {
		return 0
	}
	attemptsFactor := math.Min(100, 10*float64(data.Subject.TotalQuizzes))
	days := time.Since(data.Subject.LastQuizDate).Hours() / 24
	recencyFactor := clamp(100-2*days, 20, 100)
	return int(math.Round(0.7*attemptsFactor + 0.3*recencyFactor))
}

// confidence reflects how much history backs the recommendation.
func confidence(data *PerformanceData) string {
	recent := len(data.Recent)
	switch {
	case data.TotalQuizzes < 3 || recent < 2:
		return ConfidenceLow
	case data.TotalQuizzes < 8 || recent < 4:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// suggestedTopics picks up to three weakest topics below 70% accuracy.
func suggestedTopics(topics []TopicAccuracy) []string {
	weak := make([]TopicAccuracy, 0, len(topics))
	for _, t := range topics {
		if t.Accuracy < 70 {
			weak = append(weak, t)
		}
	}
	sort.Slice(weak, func(i, j int) bool { return weak[i].Accuracy < weak[j].Accuracy })
	if len(weak) > 3 {
		weak = weak[:3]
	}
	out := make([]string, len(weak))
	for i, t := range weak {
		out[i] = t.Topic
	}
	return out
}

// baseline is the performance-bucketed starting distribution.
func baseline(perf int) (quiz.DifficultyDistribution, string) {
	switch {
	case perf < 40:
		return quiz.DifficultyDistribution{Easy: 70, Medium: 25, Hard: 5},
			"low average score favors easy questions"
	case perf < 60:
		return quiz.DifficultyDistribution{Easy: 50, Medium: 40, Hard: 10},
			"below-average score keeps the mix gentle"
	case perf < 75:
		return quiz.DifficultyDistribution{Easy: 35, Medium: 45, Hard: 20},
			"solid performance supports a balanced mix"
	case perf < 85:
		return quiz.DifficultyDistribution{Easy: 25, Medium: 50, Hard: 25},
			"strong performance shifts weight to medium and hard"
	default:
		return quiz.DifficultyDistribution{Easy: 15, Medium: 40, Hard: 45},
			"excellent performance favors hard questions"
	}
}

// adaptiveDistribution applies the sequential factor adjustments to the
// baseline and normalizes the result.
func adaptiveDistribution(f Factors) (quiz.DifficultyDistribution, []string) {
	d, why := baseline(f.PerformanceScore)
	reasoning := []string{why}

	switch {
	case f.ConsistencyScore < 30:
		d.Easy += 10
		d.Hard -= 10
		reasoning = append(reasoning, "inconsistent scores call for more easy questions")
	case f.ConsistencyScore > 80:
		d.Hard += 5
		d.Easy -= 5
		reasoning = append(reasoning, "consistent scores allow a harder mix")
	}

	switch {
	case f.ImprovementTrend > 20:
		d.Hard += 5
		d.Medium += 5
		d.Easy -= 10
		reasoning = append(reasoning, "improving trend raises the challenge")
	case f.ImprovementTrend < -20:
		d.Easy += 10
		d.Hard -= 10
		reasoning = append(reasoning, "declining trend eases the mix")
	}

	switch {
	case f.SubjectFamiliarity < 20:
		d.Easy += 15
		d.Medium += 5
		d.Hard -= 20
		reasoning = append(reasoning, "low familiarity with the subject favors easy questions")
	case f.SubjectFamiliarity > 80:
		d.Hard += 10
		d.Easy -= 10
		reasoning = append(reasoning, "high familiarity with the subject raises the challenge")
	}

	return normalize(d), reasoning
}

// normalize clamps easy and hard, recomputes medium, and backfills a medium
// floor of 10 from the larger of easy/hard.
func normalize(d quiz.DifficultyDistribution) quiz.DifficultyDistribution {
	d.Easy = int(clamp(float64(d.Easy), 10, 80))
	d.Hard = int(clamp(float64(d.Hard), 5, 60))
	d.Medium = 100 - d.Easy - d.Hard
	if d.Medium < 10 {
		shortfall := 10 - d.Medium
		if d.Easy >= d.Hard {
			d.Easy -= shortfall
		} else {
			d.Hard -= shortfall
		}
		d.Medium = 10
	}
	return d
}

// fixedLevelDistribution returns the table for an explicitly requested level.
func fixedLevelDistribution(level quiz.Difficulty, perf int) quiz.DifficultyDistribution {
	switch level {
	case quiz.DifficultyEasy:
		if perf < 50 {
			return quiz.DifficultyDistribution{Easy: 90, Medium: 10, Hard: 0}
		}
		return quiz.DifficultyDistribution{Easy: 80, Medium: 15, Hard: 5}
	case quiz.DifficultyHard:
		if perf < 60 {
			return quiz.DifficultyDistribution{Easy: 20, Medium: 50, Hard: 30}
		}
		return quiz.DifficultyDistribution{Easy: 5, Medium: 35, Hard: 60}
	default: // medium
		switch {
		case perf < 50:
			return quiz.DifficultyDistribution{Easy: 40, Medium: 50, Hard: 10}
		case perf > 80:
			return quiz.DifficultyDistribution{Easy: 10, Medium: 70, Hard: 20}
		default:
			return quiz.DifficultyDistribution{Easy: 20, Medium: 70, Hard: 10}
		}
	}
}

func recentScores(recent []ScoreSample, n int) []float64 {
	if len(recent) > n {
		recent = recent[:n]
	}
	scores := make([]float64, len(recent))
	for i, s := range recent {
		scores[i] = s.Score
	}
	return scores
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
