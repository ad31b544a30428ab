//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package quiz provides the quiz and question aggregates.
package quiz

import (
	"fmt"
	"time"
)

// Difficulty represents a question or quiz difficulty level.
type Difficulty string

// Difficulty constants. Mixed and Adaptive are valid only at quiz level.
const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyMixed    Difficulty = "mixed"
	DifficultyAdaptive Difficulty = "adaptive"
)

// IsLevel reports whether the difficulty is a fixed question-level value.
func (d Difficulty) IsLevel() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// DifficultyDistribution is a triple of integer percentages summing to 100.
type DifficultyDistribution struct {
	Easy   int `json:"easy" bson:"easy"`
	Medium int `json:"medium" bson:"medium"`
	Hard   int `json:"hard" bson:"hard"`
}

// Total returns the sum of the three percentages.
func (d DifficultyDistribution) Total() int {
	return d.Easy + d.Medium + d.Hard
}

// AdaptiveMetadata is the snapshot persisted on a quiz generated by the
// adaptive synthesis path.
type AdaptiveMetadata struct {
	Distribution       DifficultyDistribution `json:"distribution" bson:"distribution"`
	ConfidenceLevel    string                 `json:"confidenceLevel" bson:"confidenceLevel"`
	PerformanceScore   int                    `json:"performanceScore" bson:"performanceScore"`
	ConsistencyScore   int                    `json:"consistencyScore" bson:"consistencyScore"`
	ImprovementTrend   int                    `json:"improvementTrend" bson:"improvementTrend"`
	SubjectFamiliarity int                    `json:"subjectFamiliarity" bson:"subjectFamiliarity"`
	BaselineAverage    float64                `json:"baselineAverage" bson:"baselineAverage"`
	Reasoning          []string               `json:"reasoning,omitempty" bson:"reasoning,omitempty"`
	SuggestedTopics    []string               `json:"suggestedTopics,omitempty" bson:"suggestedTopics,omitempty"`
}

// Metadata holds quiz-level configuration.
type Metadata struct {
	Grade            int               `json:"grade" bson:"grade"`
	Subject          string            `json:"subject" bson:"subject"`
	TotalQuestions   int               `json:"totalQuestions" bson:"totalQuestions"`
	TimeLimitMinutes int               `json:"timeLimitMinutes" bson:"timeLimitMinutes"`
	Difficulty       Difficulty        `json:"difficulty" bson:"difficulty"`
	Tags             []string          `json:"tags,omitempty" bson:"tags,omitempty"`
	Category         string            `json:"category,omitempty" bson:"category,omitempty"`
	Adaptive         *AdaptiveMetadata `json:"adaptiveMetadata,omitempty" bson:"adaptiveMetadata,omitempty"`
}

// Quiz is the quiz aggregate root.
type Quiz struct {
	ID          string     `json:"quizId" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Metadata    Metadata   `json:"metadata" bson:"metadata"`
	Questions   []Question `json:"questions" bson:"questions"`
	CreatedBy   string     `json:"createdBy" bson:"createdBy"`
	IsPublic    bool       `json:"isPublic" bson:"isPublic"`
	IsActive    bool       `json:"isActive" bson:"isActive"`
	// Version is monotonic and incremented on any mutation.
	Version   int       `json:"version" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ValidationError reports an input that violates the quiz schema.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Validate checks the quiz invariants: metadata ranges, question count and
// per-question constraints.
func (q *Quiz) Validate() error {
	if q.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if err := q.Metadata.Validate(); err != nil {
		return err
	}
	if len(q.Questions) != q.Metadata.TotalQuestions {
		return &ValidationError{
			Field: "questions",
			Message: fmt.Sprintf("question count %d does not match totalQuestions %d",
				len(q.Questions), q.Metadata.TotalQuestions),
		}
	}
	for i := range q.Questions {
		if err := q.Questions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the metadata ranges.
func (m *Metadata) Validate() error {
	if m.Grade < 1 || m.Grade > 12 {
		return &ValidationError{Field: "metadata.grade", Message: "grade must be between 1 and 12"}
	}
	if m.Subject == "" {
		return &ValidationError{Field: "metadata.subject", Message: "subject is required"}
	}
	if m.TotalQuestions < 1 || m.TotalQuestions > 50 {
		return &ValidationError{Field: "metadata.totalQuestions", Message: "totalQuestions must be between 1 and 50"}
	}
	if m.TimeLimitMinutes < 5 || m.TimeLimitMinutes > 180 {
		return &ValidationError{Field: "metadata.timeLimitMinutes", Message: "timeLimitMinutes must be between 5 and 180"}
	}
	switch m.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed, DifficultyAdaptive:
	default:
		return &ValidationError{Field: "metadata.difficulty", Message: "unknown difficulty " + string(m.Difficulty)}
	}
	return nil
}
