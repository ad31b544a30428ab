//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package quiz

// SanitizeOptions controls which fields survive sanitization.
// IncludeSolutions is true only for internal grading calls.
type SanitizeOptions struct {
	IncludeSolutions bool
	IncludeHints     bool
}

// Sanitize returns a copy of the questions with solution fields stripped.
// CorrectAnswer and Explanation are removed unless IncludeSolutions is set;
// Hints are removed unless IncludeHints is set. The input is never mutated.
func Sanitize(questions []Question, opts SanitizeOptions) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		s := q
		s.Options = append([]string(nil), q.Options...)
		if !opts.IncludeSolutions {
			s.CorrectAnswer = ""
			s.Explanation = ""
		}
		if opts.IncludeHints {
			s.Hints = append([]string(nil), q.Hints...)
		} else {
			s.Hints = nil
		}
		out[i] = s
	}
	return out
}

// SanitizeQuiz returns a copy of the quiz with its questions sanitized.
func SanitizeQuiz(q *Quiz, opts SanitizeOptions) *Quiz {
	out := *q
	out.Questions = Sanitize(q.Questions, opts)
	return &out
}
