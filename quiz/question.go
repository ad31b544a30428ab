//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package quiz

import (
	"strings"

	"github.com/quizforge/quizcore/log"
)

// QuestionType represents the answer shape of a question.
type QuestionType string

// QuestionType constants.
const (
	TypeMCQ         QuestionType = "mcq"
	TypeTrueFalse   QuestionType = "true_false"
	TypeShortAnswer QuestionType = "short_answer"
)

// IsValid checks if the question type is one of the defined constants.
func (t QuestionType) IsValid() bool {
	switch t {
	case TypeMCQ, TypeTrueFalse, TypeShortAnswer:
		return true
	default:
		return false
	}
}

// typeAliases maps common provider spellings onto the canonical three-value set.
// Lookup is case-insensitive.
var typeAliases = map[string]QuestionType{
	"mcq":             TypeMCQ,
	"multiple_choice": TypeMCQ,
	"multiple-choice": TypeMCQ,
	"multiplechoice":  TypeMCQ,
	"choice":          TypeMCQ,
	"single_choice":   TypeMCQ,
	"true_false":      TypeTrueFalse,
	"true/false":      TypeTrueFalse,
	"true-false":      TypeTrueFalse,
	"truefalse":       TypeTrueFalse,
	"tf":              TypeTrueFalse,
	"boolean":         TypeTrueFalse,
	"bool":            TypeTrueFalse,
	"short_answer":    TypeShortAnswer,
	"short-answer":    TypeShortAnswer,
	"shortanswer":     TypeShortAnswer,
	"short":           TypeShortAnswer,
	"text":            TypeShortAnswer,
	"open":            TypeShortAnswer,
	"fill_in_blank":   TypeShortAnswer,
}

// CanonicalType normalizes a raw question type string. Unknown strings default
// to mcq with a warning.
func CanonicalType(raw string) QuestionType {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	if t, ok := typeAliases[key]; ok {
		return t
	}
	log.Warnf("unknown question type %q, defaulting to %s", raw, TypeMCQ)
	return TypeMCQ
}

// Question is a single quiz question. CorrectAnswer and Explanation are the
// solution fields stripped by Sanitize before client exposure.
type Question struct {
	ID            string       `json:"questionId" bson:"questionId"`
	Text          string       `json:"questionText" bson:"questionText"`
	Type          QuestionType `json:"questionType" bson:"questionType"`
	Options       []string     `json:"options,omitempty" bson:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"`
	Explanation   string       `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Difficulty    Difficulty   `json:"difficulty" bson:"difficulty"`
	Points        int          `json:"points" bson:"points"`
	Hints         []string     `json:"hints,omitempty" bson:"hints,omitempty"`
	Topic         string       `json:"topic,omitempty" bson:"topic,omitempty"`
}

// Validate checks the per-question invariants.
func (q *Question) Validate() error {
	if q.ID == "" {
		return &ValidationError{Field: "questionId", Message: "questionId is required"}
	}
	if q.Text == "" {
		return &ValidationError{Field: "questionText", Message: "question text is required"}
	}
	if !q.Type.IsValid() {
		return &ValidationError{Field: "questionType", Message: "unknown question type " + string(q.Type)}
	}
	if q.Points < 1 || q.Points > 10 {
		return &ValidationError{Field: "points", Message: "points must be between 1 and 10"}
	}
	if len(q.Hints) > 5 {
		return &ValidationError{Field: "hints", Message: "at most 5 hints are allowed"}
	}
	if !q.Difficulty.IsLevel() {
		return &ValidationError{Field: "difficulty", Message: "question difficulty must be easy, medium or hard"}
	}
	if q.Type == TypeMCQ {
		if len(q.Options) < 2 || len(q.Options) > 6 {
			return &ValidationError{Field: "options", Message: "mcq requires 2 to 6 options"}
		}
		// The author tool stores the correct answer case-sensitively;
		// grading is case-insensitive.
		if q.CorrectAnswer != "" {
			found := false
			for _, opt := range q.Options {
				if opt == q.CorrectAnswer {
					found = true
					break
				}
			}
			if !found {
				return &ValidationError{Field: "correctAnswer", Message: "correctAnswer must equal exactly one option"}
			}
		}
	}
	return nil
}
