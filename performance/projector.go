//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package performance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/quizforge/quizcore/log"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/submission"
)

// ErrConflict is returned by a store when an optimistic performance update
// loses a concurrent race.
var ErrConflict = errors.New("performance history conflict")

// Store is the persistence contract the projector requires.
type Store interface {
	// GetPerformance resolves a record by case-insensitive subject.
	// A missing record yields (nil, nil).
	GetPerformance(ctx context.Context, userID, subject string, grade int) (*History, error)
	// UpsertPerformance persists a record. When expectedLastCalculatedAt is
	// non-nil the write is optimistic and fails with ErrConflict if the
	// stored record moved on.
	UpsertPerformance(ctx context.Context, h *History, expectedLastCalculatedAt *time.Time) (*History, error)
}

// Projector folds completed submissions into performance history.
type Projector struct {
	store      Store
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

// ProjectorOption configures a Projector.
type ProjectorOption func(*Projector)

// WithMaxRetries sets the optimistic-concurrency retry budget.
func WithMaxRetries(n int) ProjectorOption {
	return func(p *Projector) { p.maxRetries = n }
}

// WithRetryBackoff sets the delay between conflict retries.
func WithRetryBackoff(d time.Duration) ProjectorOption {
	return func(p *Projector) { p.backoff = d }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) ProjectorOption {
	return func(p *Projector) { p.now = now }
}

// NewProjector creates a projector over the given store.
func NewProjector(store Store, opts ...ProjectorOption) *Projector {
	p := &Projector{
		store:      store,
		maxRetries: 3,
		backoff:    50 * time.Millisecond,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project folds one completed submission into the (userID, subject, grade)
// record. Concurrent projections for the same key are resolved by optimistic
// concurrency with a bounded retry; after the budget is spent the conflict is
// returned and the caller decides whether to drop it.
func (p *Projector) Project(ctx context.Context, userID, subject string, grade int,
	sub *submission.Submission, difficulty quiz.Difficulty) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff):
			}
		}
		h, err := p.store.GetPerformance(ctx, userID, subject, grade)
		if err != nil {
			return fmt.Errorf("load performance: %w", err)
		}
		var expected *time.Time
		if h == nil {
			h = NewHistory(userID, subject, grade)
		} else {
			t := h.LastCalculatedAt
			expected = &t
		}
		p.apply(h, sub, difficulty)
		if _, err := p.store.UpsertPerformance(ctx, h, expected); err != nil {
			if errors.Is(err, ErrConflict) {
				lastErr = err
				log.Warnf("performance projection conflict for user=%s subject=%s, attempt %d",
					userID, subject, attempt+1)
				continue
			}
			return fmt.Errorf("persist performance: %w", err)
		}
		return nil
	}
	return lastErr
}

// apply performs the single logical update step of the projection.
func (p *Projector) apply(h *History, sub *submission.Submission, difficulty quiz.Difficulty) {
	now := p.now()
	newScore := float64(sub.Scoring.ScorePercentage)
	newTimeMinutes := int(math.Round(float64(sub.Timing.TotalTimeSpent) / 60))

	// Aggregate stats.
	n := h.Stats.TotalQuizzes + 1
	h.Stats.AverageScore = (h.Stats.AverageScore*float64(n-1) + newScore) / float64(n)
	if n == 1 {
		h.Stats.BestScore = newScore
		h.Stats.WorstScore = newScore
	} else {
		h.Stats.BestScore = math.Max(h.Stats.BestScore, newScore)
		h.Stats.WorstScore = math.Min(h.Stats.WorstScore, newScore)
	}
	h.Stats.TotalQuizzes = n
	h.Stats.TotalTimeSpent += newTimeMinutes

	// Recent ring, newest first.
	entry := RecentEntry{Date: now, Score: newScore, QuizID: sub.QuizID, Difficulty: difficulty}
	h.RecentPerformance = append([]RecentEntry{entry}, h.RecentPerformance...)
	if len(h.RecentPerformance) > RecentLimit {
		h.RecentPerformance = h.RecentPerformance[:RecentLimit]
	}

	// Consistency over the recent scores.
	scores := make([]float64, len(h.RecentPerformance))
	for i, e := range h.RecentPerformance {
		scores[i] = e.Score
	}
	stdev := math.Sqrt(populationVariance(scores))
	h.Stats.Consistency = clamp(100-stdev, 0, 100)

	h.Trends = computeTrends(h.RecentPerformance, h.Stats.AverageScore)

	p.applyTopicStats(h, sub)

	h.LastCalculatedAt = now
}

// computeTrends derives the trend block from the three newest entries.
func computeTrends(recent []RecentEntry, averageScore float64) Trends {
	if len(recent) < 3 {
		return Trends{
			Improving:             true,
			TrendDirection:        TrendStable,
			RecommendedDifficulty: quiz.DifficultyMedium,
		}
	}
	avg3 := (recent[0].Score + recent[1].Score + recent[2].Score) / 3
	diff := avg3 - averageScore

	t := Trends{Improving: diff > -5, TrendDirection: TrendStable}
	if diff > 5 {
		t.TrendDirection = TrendUp
	} else if diff < -5 {
		t.TrendDirection = TrendDown
	}

	switch {
	case avg3 >= 85:
		t.RecommendedDifficulty = quiz.DifficultyHard
	case avg3 < 65:
		t.RecommendedDifficulty = quiz.DifficultyEasy
	default:
		t.RecommendedDifficulty = quiz.DifficultyMedium
	}
	return t
}

// applyTopicStats folds per-answer topic outcomes into the topic breakdown.
func (p *Projector) applyTopicStats(h *History, sub *submission.Submission) {
	for _, a := range sub.Answers {
		if a.Topic == "" {
			continue
		}
		idx := -1
		for i := range h.TopicWiseStats {
			if h.TopicWiseStats[i].Topic == a.Topic {
				idx = i
				break
			}
		}
		if idx == -1 {
			h.TopicWiseStats = append(h.TopicWiseStats, TopicStats{Topic: a.Topic})
			idx = len(h.TopicWiseStats) - 1
		}
		ts := &h.TopicWiseStats[idx]
		prev := float64(ts.TotalQuestions)
		ts.TotalQuestions++
		if a.IsCorrect {
			ts.CorrectAnswers++
		}
		ts.Accuracy = 100 * float64(ts.CorrectAnswers) / float64(ts.TotalQuestions)
		ts.AvgTimePerQuestion = (ts.AvgTimePerQuestion*prev + float64(a.TimeSpent)) / float64(ts.TotalQuestions)
	}
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return sq / float64(len(values))
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
