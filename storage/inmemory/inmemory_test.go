//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizcore/performance"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/storage"
	"github.com/quizforge/quizcore/submission"
)

func sampleQuiz(subject string) *quiz.Quiz {
	return &quiz.Quiz{
		Title: subject + " basics",
		Metadata: quiz.Metadata{
			Grade:            5,
			Subject:          subject,
			TotalQuestions:   1,
			TimeLimitMinutes: 10,
			Difficulty:       quiz.DifficultyEasy,
		},
		Questions: []quiz.Question{{
			ID: "q_1", Text: "2+2?", Type: quiz.TypeMCQ,
			Options: []string{"3", "4"}, CorrectAnswer: "4",
			Difficulty: quiz.DifficultyEasy, Points: 1,
		}},
		CreatedBy: "u1",
		IsActive:  true,
	}
}

func TestQuizLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateQuiz(ctx, sampleQuiz("Math"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetQuizByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.True(t, got.IsActive)

	// Version-checked update.
	title := "Renamed"
	updated, err := s.UpdateQuiz(ctx, id, storage.QuizPatch{Title: &title}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 2, updated.Version)

	// Stale version loses.
	_, err = s.UpdateQuiz(ctx, id, storage.QuizPatch{Title: &title}, 1)
	require.ErrorIs(t, err, storage.ErrVersionMismatch)

	// Soft delete keeps the document but flips activity and bumps the version.
	require.NoError(t, s.SoftDelete(ctx, id))
	got, err = s.GetQuizByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 3, got.Version)

	_, err = s.GetQuizByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrQuizNotFound)
}

func TestListQuizzesFiltersAndStripsQuestions(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateQuiz(ctx, sampleQuiz("Math"))
	require.NoError(t, err)
	scienceID, err := s.CreateQuiz(ctx, sampleQuiz("Science"))
	require.NoError(t, err)
	require.NoError(t, s.SoftDelete(ctx, scienceID))

	all, total, err := s.ListQuizzes(ctx, storage.QuizFilter{}, storage.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, q := range all {
		assert.Nil(t, q.Questions)
	}

	active, total, err := s.ListQuizzes(ctx, storage.QuizFilter{ActiveOnly: true}, storage.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, active, 1)
	assert.Equal(t, "Math", active[0].Metadata.Subject)
}

func TestUpdateQuestionHints(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateQuiz(ctx, sampleQuiz("Math"))
	require.NoError(t, err)

	version, err := s.UpdateQuestionHints(ctx, id, "q_1", []string{"think even"})
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	got, err := s.GetQuizByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"think even"}, got.Questions[0].Hints)

	_, err = s.UpdateQuestionHints(ctx, id, "nope", nil)
	require.ErrorIs(t, err, storage.ErrQuestionNotFound)
}

func TestDuplicateAttemptRejected(t *testing.T) {
	s := New()
	ctx := context.Background()

	sub := &submission.Submission{QuizID: "quiz-1", UserID: "u1", AttemptNumber: 1, IsCompleted: true}
	_, err := s.CreateSubmission(ctx, sub)
	require.NoError(t, err)

	_, err = s.CreateSubmission(ctx, &submission.Submission{
		QuizID: "quiz-1", UserID: "u1", AttemptNumber: 1, IsCompleted: true,
	})
	require.ErrorIs(t, err, storage.ErrDuplicateAttempt)

	// Other attempt number and other user both pass.
	_, err = s.CreateSubmission(ctx, &submission.Submission{
		QuizID: "quiz-1", UserID: "u1", AttemptNumber: 2, IsCompleted: true,
	})
	require.NoError(t, err)
	_, err = s.CreateSubmission(ctx, &submission.Submission{
		QuizID: "quiz-1", UserID: "u2", AttemptNumber: 1, IsCompleted: true,
	})
	require.NoError(t, err)

	n, err := s.CountAttempts(ctx, "u1", "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestListSubmissionsNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		_, err := s.CreateSubmission(ctx, &submission.Submission{
			QuizID: "quiz-1", UserID: "u1", AttemptNumber: i,
			Timing:      submission.Timing{SubmittedAt: base.Add(time.Duration(i) * time.Hour)},
			IsCompleted: true,
		})
		require.NoError(t, err)
	}

	subs, total, err := s.ListSubmissions(ctx, "u1", storage.SubmissionFilter{}, storage.Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, subs, 2)
	assert.Equal(t, 3, subs[0].AttemptNumber)
	assert.Equal(t, 2, subs[1].AttemptNumber)
}

func TestGetSubmissionOwnership(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateSubmission(ctx, &submission.Submission{
		QuizID: "quiz-1", UserID: "u1", AttemptNumber: 1, IsCompleted: true,
	})
	require.NoError(t, err)

	_, err = s.GetSubmission(ctx, id, "u1")
	require.NoError(t, err)
	_, err = s.GetSubmission(ctx, id, "intruder")
	require.ErrorIs(t, err, storage.ErrSubmissionNotFound)
}

func TestAttachEvaluation(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateSubmission(ctx, &submission.Submission{
		QuizID: "quiz-1", UserID: "u1", AttemptNumber: 1, IsCompleted: true,
	})
	require.NoError(t, err)

	eval := &submission.AIEvaluation{
		Provider:    "openai",
		Suggestions: []string{"a", "b"},
		EvaluatedAt: time.Now(),
	}
	require.NoError(t, s.AttachEvaluation(ctx, id, eval))

	got, err := s.GetSubmission(ctx, id, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.AIEvaluation)
	assert.Equal(t, "openai", got.AIEvaluation.Provider)

	require.ErrorIs(t, s.AttachEvaluation(ctx, "missing", eval), storage.ErrSubmissionNotFound)
}

func TestUpsertPerformanceOptimistic(t *testing.T) {
	s := New()
	ctx := context.Background()

	h := performance.NewHistory("u1", "Math", 5)
	h.Stats.TotalQuizzes = 1
	h.LastCalculatedAt = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	// First insert asserts absence.
	_, err := s.UpsertPerformance(ctx, h, nil)
	require.NoError(t, err)

	// A second insert with the same assertion conflicts.
	_, err = s.UpsertPerformance(ctx, h, nil)
	require.ErrorIs(t, err, performance.ErrConflict)

	// Case-insensitive subject lookup.
	got, err := s.GetPerformance(ctx, "u1", "  MATH ", 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Math", got.Subject)

	// Update against the stored timestamp wins, a stale one loses.
	expected := h.LastCalculatedAt
	h2 := *h
	h2.Stats.TotalQuizzes = 2
	h2.LastCalculatedAt = expected.Add(time.Minute)
	_, err = s.UpsertPerformance(ctx, &h2, &expected)
	require.NoError(t, err)

	_, err = s.UpsertPerformance(ctx, &h2, &expected)
	require.ErrorIs(t, err, performance.ErrConflict)

	// Missing record reads as nil without error.
	got, err = s.GetPerformance(ctx, "u1", "History", 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLeaderboardOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, row := range []struct {
		user string
		avg  float64
	}{{"u1", 70}, {"u2", 95}, {"u3", 82}} {
		h := performance.NewHistory(row.user, "Math", 5)
		h.Stats.AverageScore = row.avg
		h.Stats.TotalQuizzes = 4
		_, err := s.UpsertPerformance(ctx, h, nil)
		require.NoError(t, err)
	}

	rows, err := s.ListForLeaderboard(ctx, storage.LeaderboardFilter{Subject: "math", Grade: 5}, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, "u3", rows[1].UserID)
}

func TestListPerformance(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, subject := range []string{"Math", "Science"} {
		h := performance.NewHistory("u1", subject, 5)
		h.Stats.TotalQuizzes = 1
		_, err := s.UpsertPerformance(ctx, h, nil)
		require.NoError(t, err)
	}
	histories, err := s.ListPerformance(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, histories, 2)
}
