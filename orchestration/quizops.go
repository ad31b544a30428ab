//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package orchestration

import (
	"context"
	"fmt"

	"github.com/quizforge/quizcore/performance"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/storage"
	"github.com/quizforge/quizcore/submission"
)

// maxHintsPerQuestion bounds the hints carried by one question.
const maxHintsPerQuestion = 5

// CreateQuiz validates and persists a quiz.
func (s *Service) CreateQuiz(ctx context.Context, q *quiz.Quiz) (string, error) {
	if q.Version == 0 {
		q.Version = 1
	}
	q.IsActive = true
	for i := range q.Questions {
		if q.Questions[i].ID == "" {
			q.Questions[i].ID = fmt.Sprintf("q_%d", i+1)
		}
	}
	if err := q.Validate(); err != nil {
		return "", err
	}
	return s.quizzes.CreateQuiz(ctx, q)
}

// GetQuiz returns a sanitized quiz. Solutions are never exposed here; the
// submission flow reads them internally.
func (s *Service) GetQuiz(ctx context.Context, id string, includeHints bool) (*quiz.Quiz, error) {
	q, err := s.quizzes.GetQuizByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.IsActive {
		return nil, storage.ErrQuizNotFound
	}
	return quiz.SanitizeQuiz(q, quiz.SanitizeOptions{IncludeHints: includeHints}), nil
}

// ListQuizzes lists active quizzes without their questions.
func (s *Service) ListQuizzes(ctx context.Context, filter storage.QuizFilter, page storage.Page) ([]*quiz.Quiz, int64, error) {
	filter.ActiveOnly = true
	return s.quizzes.ListQuizzes(ctx, filter, page)
}

// UpdateQuiz applies a patch under optimistic concurrency and returns the
// sanitized result.
func (s *Service) UpdateQuiz(ctx context.Context, id string, patch storage.QuizPatch, expectedVersion int) (*quiz.Quiz, error) {
	updated, err := s.quizzes.UpdateQuiz(ctx, id, patch, expectedVersion)
	if err != nil {
		return nil, err
	}
	return quiz.SanitizeQuiz(updated, quiz.SanitizeOptions{IncludeHints: true}), nil
}

// DeleteQuiz soft-deletes a quiz; submissions referencing it survive.
func (s *Service) DeleteQuiz(ctx context.Context, id string) error {
	return s.quizzes.SoftDelete(ctx, id)
}

// DuplicateQuiz copies a quiz into a private draft owned by the caller: fresh
// id, version 1, isPublic false.
func (s *Service) DuplicateQuiz(ctx context.Context, id, userID string) (*quiz.Quiz, error) {
	q, err := s.quizzes.GetQuizByID(ctx, id)
	if err != nil {
		return nil, err
	}
	copyQ := *q
	copyQ.ID = ""
	copyQ.Title = q.Title + " (Copy)"
	copyQ.CreatedBy = userID
	copyQ.IsPublic = false
	copyQ.IsActive = true
	copyQ.Version = 1
	copyQ.Questions = append([]quiz.Question(nil), q.Questions...)

	newID, err := s.quizzes.CreateQuiz(ctx, &copyQ)
	if err != nil {
		return nil, err
	}
	copyQ.ID = newID
	return quiz.SanitizeQuiz(&copyQ, quiz.SanitizeOptions{IncludeHints: true}), nil
}

// GenerateHint generates one extra hint for a question and persists it.
func (s *Service) GenerateHint(ctx context.Context, quizID, questionID string) (string, error) {
	if s.gateway == nil {
		return "", ErrGatewayUnavailable
	}
	q, err := s.quizzes.GetQuizByID(ctx, quizID)
	if err != nil {
		return "", err
	}
	var target *quiz.Question
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			target = &q.Questions[i]
			break
		}
	}
	if target == nil {
		return "", storage.ErrQuestionNotFound
	}
	if len(target.Hints) >= maxHintsPerQuestion {
		return "", fmt.Errorf("question %s already has %d hints", questionID, maxHintsPerQuestion)
	}

	hint, err := s.gateway.GenerateHint(ctx, *target)
	if err != nil {
		return "", err
	}
	hints := append(append([]string(nil), target.Hints...), hint)
	if _, err := s.quizzes.UpdateQuestionHints(ctx, quizID, questionID, hints); err != nil {
		return "", err
	}
	return hint, nil
}

// GetSubmission returns a user's submission with per-answer detail.
func (s *Service) GetSubmission(ctx context.Context, id, userID string) (*submission.Submission, error) {
	return s.submissions.GetSubmission(ctx, id, userID)
}

// ListSubmissions lists a user's submissions, newest first.
func (s *Service) ListSubmissions(ctx context.Context, userID string, filter storage.SubmissionFilter, page storage.Page) ([]*submission.Submission, int64, error) {
	return s.submissions.ListSubmissions(ctx, userID, filter, page)
}

// GetPerformance returns one per-subject performance record, nil when the
// user has no history there.
func (s *Service) GetPerformance(ctx context.Context, userID, subject string, grade int) (*performance.History, error) {
	return s.performance.GetPerformance(ctx, userID, subject, grade)
}

// Leaderboard returns the ordered leaderboard projection.
func (s *Service) Leaderboard(ctx context.Context, filter storage.LeaderboardFilter, limit int) ([]storage.LeaderboardRow, error) {
	return s.performance.ListForLeaderboard(ctx, filter, limit)
}
