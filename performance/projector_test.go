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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/submission"
)

// fakeStore keeps one record and can inject conflicts.
type fakeStore struct {
	record        *History
	conflictsLeft int
	upserts       int
}

func (f *fakeStore) GetPerformance(ctx context.Context, userID, subject string, grade int) (*History, error) {
	if f.record == nil {
		return nil, nil
	}
	c := *f.record
	return &c, nil
}

func (f *fakeStore) UpsertPerformance(ctx context.Context, h *History, expected *time.Time) (*History, error) {
	f.upserts++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return nil, ErrConflict
	}
	if expected == nil && f.record != nil {
		return nil, ErrConflict
	}
	if expected != nil && (f.record == nil || !f.record.LastCalculatedAt.Equal(*expected)) {
		return nil, ErrConflict
	}
	c := *h
	f.record = &c
	return h, nil
}

func completedSubmission(score, seconds int) *submission.Submission {
	return &submission.Submission{
		ID:     "s1",
		QuizID: "quiz-1",
		UserID: "u1",
		Scoring: submission.Scoring{
			TotalQuestions:  4,
			CorrectAnswers:  score * 4 / 100,
			ScorePercentage: score,
		},
		Timing:      submission.Timing{TotalTimeSpent: seconds},
		IsCompleted: true,
	}
}

func TestProjectFirstSubmission(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	p := NewProjector(store, WithClock(func() time.Time { return now }))

	sub := completedSubmission(75, 600)
	sub.Answers = []submission.Answer{
		{QuestionID: "q_1", IsCorrect: true, TimeSpent: 120, Topic: "fractions"},
		{QuestionID: "q_2", IsCorrect: false, TimeSpent: 180, Topic: "fractions"},
	}
	require.NoError(t, p.Project(context.Background(), "u1", "Math", 5, sub, quiz.DifficultyMedium))

	h := store.record
	require.NotNil(t, h)
	assert.Equal(t, 1, h.Stats.TotalQuizzes)
	assert.Equal(t, 75.0, h.Stats.AverageScore)
	assert.Equal(t, 75.0, h.Stats.BestScore)
	assert.Equal(t, 75.0, h.Stats.WorstScore)
	assert.Equal(t, 10, h.Stats.TotalTimeSpent)
	assert.Equal(t, 100.0, h.Stats.Consistency)
	require.Len(t, h.RecentPerformance, 1)
	assert.Equal(t, "quiz-1", h.RecentPerformance[0].QuizID)
	assert.Equal(t, now, h.LastCalculatedAt)

	// Fewer than 3 entries keeps the default trend block.
	assert.True(t, h.Trends.Improving)
	assert.Equal(t, TrendStable, h.Trends.TrendDirection)
	assert.Equal(t, quiz.DifficultyMedium, h.Trends.RecommendedDifficulty)

	require.Len(t, h.TopicWiseStats, 1)
	ts := h.TopicWiseStats[0]
	assert.Equal(t, "fractions", ts.Topic)
	assert.Equal(t, 2, ts.TotalQuestions)
	assert.Equal(t, 1, ts.CorrectAnswers)
	assert.Equal(t, 50.0, ts.Accuracy)
	assert.Equal(t, 150.0, ts.AvgTimePerQuestion)
}

func TestProjectRunningAverageAndExtremes(t *testing.T) {
	store := &fakeStore{}
	p := NewProjector(store)
	ctx := context.Background()

	for _, score := range []int{60, 90, 30} {
		require.NoError(t, p.Project(ctx, "u1", "Math", 5, completedSubmission(score, 300), quiz.DifficultyMedium))
	}
	h := store.record
	assert.Equal(t, 3, h.Stats.TotalQuizzes)
	assert.Equal(t, 60.0, h.Stats.AverageScore)
	assert.Equal(t, 90.0, h.Stats.BestScore)
	assert.Equal(t, 30.0, h.Stats.WorstScore)
	assert.Equal(t, 15, h.Stats.TotalTimeSpent)
}

func TestProjectRecentRingCapped(t *testing.T) {
	store := &fakeStore{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	p := NewProjector(store, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, p.Project(ctx, "u1", "Math", 5, completedSubmission(80, 60), quiz.DifficultyEasy))
	}
	h := store.record
	require.Len(t, h.RecentPerformance, RecentLimit)
	for i := 1; i < len(h.RecentPerformance); i++ {
		assert.True(t, !h.RecentPerformance[i-1].Date.Before(h.RecentPerformance[i].Date),
			"entries must be date-descending")
	}
}

func TestProjectTrendDirections(t *testing.T) {
	store := &fakeStore{}
	p := NewProjector(store)
	ctx := context.Background()

	for _, score := range []int{40, 40, 40, 95, 95, 95} {
		require.NoError(t, p.Project(ctx, "u1", "Math", 5, completedSubmission(score, 60), quiz.DifficultyMedium))
	}
	h := store.record
	// Three newest average 95 against an overall average of 67.5.
	assert.Equal(t, TrendUp, h.Trends.TrendDirection)
	assert.True(t, h.Trends.Improving)
	assert.Equal(t, quiz.DifficultyHard, h.Trends.RecommendedDifficulty)
}

func TestProjectRetriesOnConflict(t *testing.T) {
	store := &fakeStore{conflictsLeft: 2}
	p := NewProjector(store, WithRetryBackoff(time.Millisecond))

	err := p.Project(context.Background(), "u1", "Math", 5, completedSubmission(70, 60), quiz.DifficultyMedium)
	require.NoError(t, err)
	assert.Equal(t, 3, store.upserts)
	assert.Equal(t, 1, store.record.Stats.TotalQuizzes)
}

func TestProjectGivesUpAfterBudget(t *testing.T) {
	store := &fakeStore{conflictsLeft: 10}
	p := NewProjector(store, WithMaxRetries(3), WithRetryBackoff(time.Millisecond))

	err := p.Project(context.Background(), "u1", "Math", 5, completedSubmission(70, 60), quiz.DifficultyMedium)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 4, store.upserts)
}
