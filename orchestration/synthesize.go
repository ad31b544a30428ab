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

	"github.com/quizforge/quizcore/adaptive"
	"github.com/quizforge/quizcore/llm"
	"github.com/quizforge/quizcore/performance"
	"github.com/quizforge/quizcore/quiz"
)

// ErrGatewayUnavailable is returned by AI-backed operations when no provider
// gateway is configured.
var ErrGatewayUnavailable = errors.New("ai gateway not configured")

// GenerateQuizParams describes the adaptive quiz to synthesize.
type GenerateQuizParams struct {
	UserID           string
	Title            string
	Subject          string
	Grade            int
	TotalQuestions   int
	TimeLimitMinutes int
	Topics           []string
	// RequestedDifficulty pins a fixed level; empty means fully adaptive.
	RequestedDifficulty quiz.Difficulty
	IsPublic            bool
	// IncludeHints controls whether hints survive sanitization in the
	// returned quiz.
	IncludeHints bool
}

// GenerateAdaptiveQuiz synthesizes, persists and returns a quiz tuned to the
// user's performance history. The returned quiz is sanitized; solutions are
// only read back internally by the submission flow.
func (s *Service) GenerateAdaptiveQuiz(ctx context.Context, p *GenerateQuizParams) (*quiz.Quiz, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	data, err := s.shapePerformanceData(ctx, p.UserID, p.Subject, p.Grade)
	if err != nil {
		return nil, fmt.Errorf("load performance data: %w", err)
	}
	rec := adaptive.Recommend(data, p.RequestedDifficulty)

	questions, err := s.gateway.GenerateQuestions(ctx, llm.GenerationParams{
		Grade:          p.Grade,
		Subject:        p.Subject,
		TotalQuestions: p.TotalQuestions,
		Topics:         p.Topics,
		Difficulty:     quiz.DifficultyMixed,
		Distribution:   &rec.Distribution,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	if len(questions) < p.TotalQuestions {
		return nil, fmt.Errorf("provider returned %d questions, want %d", len(questions), p.TotalQuestions)
	}
	questions = questions[:p.TotalQuestions]

	title := p.Title
	if title == "" {
		title = fmt.Sprintf("Adaptive %s Quiz", p.Subject)
	}
	baseline := 0.0
	if data.Subject != nil {
		baseline = data.Subject.AverageScore
	}
	q := &quiz.Quiz{
		Title: title,
		Metadata: quiz.Metadata{
			Grade:            p.Grade,
			Subject:          p.Subject,
			TotalQuestions:   p.TotalQuestions,
			TimeLimitMinutes: p.TimeLimitMinutes,
			Difficulty:       quiz.DifficultyAdaptive,
			Adaptive: &quiz.AdaptiveMetadata{
				Distribution:       rec.Distribution,
				ConfidenceLevel:    rec.ConfidenceLevel,
				PerformanceScore:   rec.Factors.PerformanceScore,
				ConsistencyScore:   rec.Factors.ConsistencyScore,
				ImprovementTrend:   rec.Factors.ImprovementTrend,
				SubjectFamiliarity: rec.Factors.SubjectFamiliarity,
				BaselineAverage:    baseline,
				Reasoning:          rec.Reasoning,
				SuggestedTopics:    rec.SuggestedTopics,
			},
		},
		Questions: questions,
		CreatedBy: p.UserID,
		IsPublic:  p.IsPublic,
		IsActive:  true,
		Version:   1,
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("synthesized quiz invalid: %w", err)
	}

	id, err := s.quizzes.CreateQuiz(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("persist quiz: %w", err)
	}
	q.ID = id
	return quiz.SanitizeQuiz(q, quiz.SanitizeOptions{IncludeHints: p.IncludeHints}), nil
}

// shapePerformanceData assembles the recommender input from the performance
// store. A user with no history yields a zeroed shape.
func (s *Service) shapePerformanceData(ctx context.Context, userID, subject string, grade int) (*adaptive.PerformanceData, error) {
	histories, err := s.performance.ListPerformance(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := &adaptive.PerformanceData{}
	var weighted float64
	for _, h := range histories {
		data.TotalQuizzes += h.Stats.TotalQuizzes
		weighted += h.Stats.AverageScore * float64(h.Stats.TotalQuizzes)
	}
	if data.TotalQuizzes > 0 {
		data.GlobalAverage = weighted / float64(data.TotalQuizzes)
	}

	subjectKey := performance.SubjectKey(subject)
	for _, h := range histories {
		if performance.SubjectKey(h.Subject) != subjectKey || h.Grade != grade {
			continue
		}
		data.Subject = &adaptive.SubjectPerformance{
			AverageScore: h.Stats.AverageScore,
			TotalQuizzes: h.Stats.TotalQuizzes,
			LastQuizDate: h.LastCalculatedAt,
		}
		for _, e := range h.RecentPerformance {
			data.Recent = append(data.Recent, adaptive.ScoreSample{
				Date:       e.Date,
				Score:      e.Score,
				QuizID:     e.QuizID,
				Difficulty: e.Difficulty,
			})
		}
		for _, ts := range h.TopicWiseStats {
			data.Topics = append(data.Topics, adaptive.TopicAccuracy{
				Topic:    ts.Topic,
				Accuracy: ts.Accuracy,
			})
		}
		break
	}
	return data, nil
}
