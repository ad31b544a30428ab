//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package storage defines the persistence contracts of the quiz core.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/quizforge/quizcore/performance"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/submission"
)

var (
	// ErrQuizNotFound is returned when a quiz id resolves to nothing.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubmissionNotFound is returned when a submission id resolves to nothing.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrQuestionNotFound is returned when a question id is absent from its quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrDuplicateAttempt is returned when a submission collides on
	// (userId, quizId, attemptNumber).
	ErrDuplicateAttempt = errors.New("duplicate attempt")
	// ErrVersionMismatch is returned when an optimistic quiz update loses.
	ErrVersionMismatch = errors.New("quiz version mismatch")
)

// Page is an offset/limit pagination request.
type Page struct {
	Offset int
	Limit  int
}

// QuizFilter narrows quiz listings.
type QuizFilter struct {
	Subject    string
	Grade      int
	Difficulty quiz.Difficulty
	Category   string
	CreatedBy  string
	IsPublic   *bool
	// ActiveOnly excludes soft-deleted quizzes.
	ActiveOnly bool
}

// QuizPatch is a partial quiz update. Nil fields are left untouched.
type QuizPatch struct {
	Title       *string
	Description *string
	IsPublic    *bool
	Metadata    *quiz.Metadata
	Questions   []quiz.Question
}

// QuizStore persists quiz aggregates. Reads return quizzes in full,
// including solutions; sanitization happens above the store.
type QuizStore interface {
	// GetQuizByID returns the full quiz or ErrQuizNotFound.
	GetQuizByID(ctx context.Context, id string) (*quiz.Quiz, error)
	// ListQuizzes returns quizzes without their questions plus the total count.
	ListQuizzes(ctx context.Context, filter QuizFilter, page Page) ([]*quiz.Quiz, int64, error)
	// CreateQuiz persists a new quiz and returns its id.
	CreateQuiz(ctx context.Context, q *quiz.Quiz) (string, error)
	// UpdateQuiz applies a patch under optimistic concurrency; the stored
	// version must equal expectedVersion or ErrVersionMismatch is returned.
	UpdateQuiz(ctx context.Context, id string, patch QuizPatch, expectedVersion int) (*quiz.Quiz, error)
	// SoftDelete flips isActive off and bumps the version.
	SoftDelete(ctx context.Context, id string) error
	// UpdateQuestionHints replaces one question's hints and returns the new
	// quiz version.
	UpdateQuestionHints(ctx context.Context, quizID, questionID string, hints []string) (int, error)
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	QuizID string
	From   time.Time
	To     time.Time
}

// SubmissionStore persists submission aggregates.
type SubmissionStore interface {
	// CreateSubmission persists a new submission and returns its id. It
	// fails with ErrDuplicateAttempt on an attempt-number collision.
	CreateSubmission(ctx context.Context, s *submission.Submission) (string, error)
	// GetSubmission returns a submission owned by the user.
	GetSubmission(ctx context.Context, id, userID string) (*submission.Submission, error)
	// ListSubmissions returns the user's submissions, newest first.
	ListSubmissions(ctx context.Context, userID string, filter SubmissionFilter, page Page) ([]*submission.Submission, int64, error)
	// CountAttempts counts completed attempts for the (user, quiz) pair.
	CountAttempts(ctx context.Context, userID, quizID string) (int, error)
	// AttachEvaluation persists a best-effort AI evaluation onto an
	// existing submission.
	AttachEvaluation(ctx context.Context, id string, eval *submission.AIEvaluation) error
}

// LeaderboardFilter narrows the leaderboard projection.
type LeaderboardFilter struct {
	Subject string
	Grade   int
}

// LeaderboardRow is one row of the ordered leaderboard projection.
type LeaderboardRow struct {
	UserID       string  `json:"userId" bson:"userId"`
	Subject      string  `json:"subject" bson:"subject"`
	Grade        int     `json:"grade" bson:"grade"`
	AverageScore float64 `json:"averageScore" bson:"averageScore"`
	BestScore    float64 `json:"bestScore" bson:"bestScore"`
	TotalQuizzes int     `json:"totalQuizzes" bson:"totalQuizzes"`
}

// PerformanceStore persists performance history. It includes the projector's
// contract plus read paths for synthesis and leaderboards.
type PerformanceStore interface {
	performance.Store
	// ListPerformance returns all per-subject records of a user.
	ListPerformance(ctx context.Context, userID string) ([]*performance.History, error)
	// ListForLeaderboard returns rows ordered by average score descending.
	ListForLeaderboard(ctx context.Context, filter LeaderboardFilter, limit int) ([]LeaderboardRow, error)
}
