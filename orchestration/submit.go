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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quizforge/quizcore/log"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/scoring"
	"github.com/quizforge/quizcore/storage"
	"github.com/quizforge/quizcore/submission"
	"github.com/quizforge/quizcore/telemetry"
)

// SubmitRequest is the input of the submission flow.
type SubmitRequest struct {
	QuizID      string                  `json:"quizId"`
	UserID      string                  `json:"userId"`
	Answers     []submission.UserAnswer `json:"answers"`
	StartedAt   time.Time               `json:"startedAt"`
	SubmittedAt time.Time               `json:"submittedAt"`
	// RequestEvaluation asks for a best-effort AI evaluation.
	RequestEvaluation bool   `json:"requestEvaluation"`
	IPAddress         string `json:"-"`
	UserAgent         string `json:"-"`
}

// Results is the scoring summary returned to the caller.
type Results struct {
	Score          int      `json:"score"`
	Grade          string   `json:"grade"`
	CorrectAnswers int      `json:"correctAnswers"`
	TotalQuestions int      `json:"totalQuestions"`
	TotalTimeSpent int      `json:"totalTimeSpent"`
	Suggestions    []string `json:"suggestions"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	// AIModel names the provider that served the evaluation, empty when no
	// evaluation is present.
	AIModel string `json:"aiModel,omitempty"`
}

// Analytics reports whether the performance projection landed.
type Analytics struct {
	Updated bool `json:"updated"`
}

// SubmitResponse is the output of the submission flow.
type SubmitResponse struct {
	Submission *submission.Submission `json:"submission"`
	Results    Results                `json:"results"`
	Analytics  Analytics              `json:"analytics"`
}

// SubmitQuiz grades and persists one attempt. Grading and the durable write
// are mandatory; the AI evaluation and the performance projection are
// best-effort side effects that never fail the submission.
func (s *Service) SubmitQuiz(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	q, err := s.quizzes.GetQuizByID(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if !q.IsActive {
		return nil, storage.ErrQuizNotFound
	}

	graded, err := scoring.Grade(q.Questions, req.Answers)
	if err != nil {
		return nil, err
	}
	summary := scoring.Summarize(q.Metadata.TotalQuestions, graded)

	submittedAt := req.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}
	sub := &submission.Submission{
		QuizID:  req.QuizID,
		UserID:  req.UserID,
		Answers: graded,
		Scoring: summary,
		Timing: submission.Timing{
			StartedAt:      req.StartedAt,
			SubmittedAt:    submittedAt,
			TotalTimeSpent: int(submittedAt.Sub(req.StartedAt).Seconds()),
		},
		Metadata: submission.Metadata{
			IPAddress:  req.IPAddress,
			UserAgent:  req.UserAgent,
			DeviceType: submission.DetectDeviceType(req.UserAgent),
		},
		IsCompleted: true,
	}

	// A naive count+1 races with concurrent attempts; the unique index turns
	// the loser into ErrDuplicateAttempt and the count is re-read on retry.
	err = withBackoff(ctx, s.attemptRetries, s.attemptBackoff,
		func(err error) bool { return errors.Is(err, storage.ErrDuplicateAttempt) },
		func() error {
			count, err := s.submissions.CountAttempts(ctx, req.UserID, req.QuizID)
			if err != nil {
				return err
			}
			sub.AttemptNumber = count + 1
			id, err := s.submissions.CreateSubmission(ctx, sub)
			if err != nil {
				return err
			}
			sub.ID = id
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("persist submission: %w", err)
	}
	if telemetry.SubmissionsCompleted != nil {
		telemetry.SubmissionsCompleted.Add(ctx, 1)
	}

	// Side effects start only after the durable write and may overlap.
	var (
		wg               sync.WaitGroup
		analyticsUpdated bool
	)
	if req.RequestEvaluation && s.gateway != nil {
		s.runTask(ctx, &wg, func(ctx context.Context) {
			s.evaluateSubmission(ctx, q.Questions, sub)
		})
	}
	s.runTask(ctx, &wg, func(ctx context.Context) {
		analyticsUpdated = s.projectSubmission(ctx, q.Metadata.Subject, q.Metadata.Grade, sub, q.Metadata.Difficulty)
	})
	wg.Wait()

	return &SubmitResponse{
		Submission: sub,
		Results:    buildResults(sub),
		Analytics:  Analytics{Updated: analyticsUpdated},
	}, nil
}

// evaluateSubmission runs the best-effort AI evaluation and attaches it to
// the stored submission. Failures are logged and swallowed.
func (s *Service) evaluateSubmission(ctx context.Context, questions []quiz.Question, sub *submission.Submission) {
	eval, err := s.gateway.EvaluateSubmission(ctx, questions, sub.Answers)
	if err != nil {
		log.Warnf("submission %s: evaluation skipped: %v", sub.ID, err)
		return
	}
	attached := &submission.AIEvaluation{
		Provider:    eval.Provider,
		Suggestions: eval.Suggestions,
		Strengths:   eval.Strengths,
		Weaknesses:  eval.Weaknesses,
		EvaluatedAt: s.now(),
	}
	if err := s.submissions.AttachEvaluation(ctx, sub.ID, attached); err != nil {
		log.Warnf("submission %s: attach evaluation: %v", sub.ID, err)
		return
	}
	sub.AIEvaluation = attached
}

// projectSubmission folds the submission into the performance history and
// reports whether the projection landed.
func (s *Service) projectSubmission(ctx context.Context, subject string, grade int,
	sub *submission.Submission, difficulty quiz.Difficulty) bool {
	if err := s.projector.Project(ctx, sub.UserID, subject, grade, sub, difficulty); err != nil {
		log.Warnf("submission %s: projection deferred: %v", sub.ID, err)
		if telemetry.ProjectorConflicts != nil {
			telemetry.ProjectorConflicts.Add(ctx, 1)
		}
		return false
	}
	return true
}

// buildResults shapes the wire-level scoring summary.
func buildResults(sub *submission.Submission) Results {
	r := Results{
		Score:          sub.Scoring.ScorePercentage,
		Grade:          sub.Scoring.Grade,
		CorrectAnswers: sub.Scoring.CorrectAnswers,
		TotalQuestions: sub.Scoring.TotalQuestions,
		TotalTimeSpent: sub.Timing.TotalTimeSpent,
		Suggestions:    []string{},
		Strengths:      []string{},
		Weaknesses:     []string{},
	}
	if sub.AIEvaluation != nil {
		r.Suggestions = sub.AIEvaluation.Suggestions
		r.Strengths = sub.AIEvaluation.Strengths
		r.Weaknesses = sub.AIEvaluation.Weaknesses
		r.AIModel = sub.AIEvaluation.Provider
	}
	return r
}
