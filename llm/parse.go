//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/quizforge/quizcore/quiz"
)

// errParse marks a response the defensive extractor could not decode.
var errParse = errors.New("unparseable provider response")

// envelopeKeys are searched in order when a provider wraps the array in an
// object despite the prompt contract.
var envelopeKeys = []string{"questions", "data", "items", "quiz"}

// extractJSON slices the first JSON value out of raw provider text: it strips
// fenced code markers, then cuts from the earliest `[` or `{` to the latest
// `]` or `}`.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "```")
	s = strings.ReplaceAll(s, "```", "")

	start := -1
	for i, r := range s {
		if r == '[' || r == '{' {
			start = i
			break
		}
	}
	end := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ']' || s[i] == '}' {
			end = i
			break
		}
	}
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON boundaries found", errParse)
	}
	return s[start : end+1], nil
}

// decodeArray decodes the extracted text as a JSON array, unwrapping a
// single-level envelope object when necessary.
func decodeArray(text string) ([]map[string]any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", errParse, err)
	}
	switch v := value.(type) {
	case []any:
		return toObjectSlice(v)
	case map[string]any:
		for _, key := range envelopeKeys {
			if arr, ok := v[key].([]any); ok {
				return toObjectSlice(arr)
			}
		}
		return nil, fmt.Errorf("%w: object has no array under %v", errParse, envelopeKeys)
	default:
		return nil, fmt.Errorf("%w: neither array nor object", errParse)
	}
}

func toObjectSlice(arr []any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: array element is not an object", errParse)
		}
		out = append(out, obj)
	}
	return out, nil
}

// parseQuestions turns a raw provider response into validated questions.
func parseQuestions(raw string) ([]quiz.Question, error) {
	text, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	objects, err := decodeArray(text)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: empty question array", errParse)
	}

	questions := make([]quiz.Question, 0, len(objects))
	for i, obj := range objects {
		q := quiz.Question{
			ID:            pickString(obj, "questionId", "id"),
			Text:          pickString(obj, "questionText", "question", "text"),
			Type:          quiz.CanonicalType(pickString(obj, "questionType", "type")),
			Options:       pickStrings(obj, "options"),
			CorrectAnswer: pickString(obj, "correctAnswer", "correct_answer", "answer"),
			Explanation:   pickString(obj, "explanation"),
			Difficulty:    canonicalDifficulty(pickString(obj, "difficulty")),
			Points:        pickPoints(obj),
			Hints:         pickStrings(obj, "hints"),
			Topic:         pickString(obj, "topic"),
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("q_%d", i+1)
		}
		if q.Text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", errParse, i+1)
		}
		if len(q.Hints) > 5 {
			q.Hints = q.Hints[:5]
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// Evaluation is the normalized submission evaluation.
type Evaluation struct {
	Provider    string   `json:"provider"`
	Suggestions []string `json:"suggestions"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
}

// defaultSuggestions pad an evaluation that came back short.
var defaultSuggestions = []string{
	"Review the questions you missed and retry similar ones.",
	"Practice this subject regularly with short quizzes.",
}

// parseEvaluation turns a raw provider response into a normalized evaluation
// with exactly two suggestions.
func parseEvaluation(raw string) (*Evaluation, error) {
	text, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var value map[string]any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", errParse, err)
	}
	eval := &Evaluation{
		Suggestions: pickStrings(value, "suggestions"),
		Strengths:   pickStrings(value, "strengths"),
		Weaknesses:  pickStrings(value, "weaknesses"),
	}
	switch {
	case len(eval.Suggestions) > 2:
		eval.Suggestions = eval.Suggestions[:2]
	case len(eval.Suggestions) == 0:
		eval.Suggestions = append([]string(nil), defaultSuggestions...)
	case len(eval.Suggestions) == 1:
		eval.Suggestions = append(eval.Suggestions, defaultSuggestions[1])
	}
	if eval.Strengths == nil {
		eval.Strengths = []string{}
	}
	if eval.Weaknesses == nil {
		eval.Weaknesses = []string{}
	}
	return eval, nil
}

func pickString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func pickStrings(obj map[string]any, key string) []string {
	arr, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func pickPoints(obj map[string]any) int {
	if f, ok := obj["points"].(float64); ok {
		p := int(math.Round(f))
		if p < 1 {
			return 1
		}
		if p > 10 {
			return 10
		}
		return p
	}
	return 1
}

func canonicalDifficulty(raw string) quiz.Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return quiz.DifficultyEasy
	case "hard":
		return quiz.DifficultyHard
	default:
		return quiz.DifficultyMedium
	}
}
