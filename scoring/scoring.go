//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package scoring provides deterministic, type-aware answer grading.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/quizforge/quizcore/log"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/submission"
)

// ErrQuizDataInvalid signals corrupt stored quiz data, such as a question
// without a correct answer. It is fatal for the submission.
var ErrQuizDataInvalid = errors.New("quiz data invalid")

const (
	// hintPenaltyStep is the per-hint score deduction.
	hintPenaltyStep = 0.1
	// hintPenaltyCap caps the total hint deduction at half credit.
	hintPenaltyCap = 0.5
	// keywordMatchRatio is the fraction of key words a short answer must hit.
	keywordMatchRatio = 0.7
)

// Grade grades the user answers against the quiz questions. Answers whose
// questionId is not part of the quiz are dropped with a warning. A question
// with an empty correct answer raises ErrQuizDataInvalid.
func Grade(questions []quiz.Question, userAnswers []submission.UserAnswer) ([]submission.Answer, error) {
	byID := make(map[string]*quiz.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	graded := make([]submission.Answer, 0, len(userAnswers))
	for _, ua := range userAnswers {
		q, ok := byID[ua.QuestionID]
		if !ok {
			log.Warnf("dropping answer for unknown question %q", ua.QuestionID)
			continue
		}
		if q.CorrectAnswer == "" {
			return nil, fmt.Errorf("%w: question %s has no correct answer", ErrQuizDataInvalid, q.ID)
		}
		correct := isCorrect(q, ua.Answer)
		graded = append(graded, submission.Answer{
			QuestionID:   ua.QuestionID,
			UserAnswer:   ua.Answer,
			IsCorrect:    correct,
			PointsEarned: pointsEarned(q.Points, correct, ua.HintsUsed),
			TimeSpent:    ua.TimeSpent,
			HintsUsed:    ua.HintsUsed,
			Topic:        q.Topic,
		})
	}
	return graded, nil
}

// Summarize aggregates graded answers into the scoring summary.
// totalQuestions is the quiz question count, not the answered count.
func Summarize(totalQuestions int, answers []submission.Answer) submission.Scoring {
	s := submission.Scoring{TotalQuestions: totalQuestions}
	for _, a := range answers {
		if a.IsCorrect {
			s.CorrectAnswers++
		}
		s.TotalPoints += a.PointsEarned
	}
	if totalQuestions > 0 {
		s.ScorePercentage = int(math.Round(100 * float64(s.CorrectAnswers) / float64(totalQuestions)))
	}
	s.Grade = GradeLetter(s.ScorePercentage)
	return s
}

// GradeLetter maps a score percentage to a letter grade.
func GradeLetter(scorePercentage int) string {
	switch {
	case scorePercentage >= 90:
		return "A"
	case scorePercentage >= 80:
		return "B"
	case scorePercentage >= 70:
		return "C"
	case scorePercentage >= 60:
		return "D"
	default:
		return "F"
	}
}

// pointsEarned applies the hint penalty to a correct answer.
func pointsEarned(points int, correct bool, hintsUsed int) int {
	if !correct {
		return 0
	}
	penalty := hintPenaltyStep * float64(hintsUsed)
	if penalty > hintPenaltyCap {
		penalty = hintPenaltyCap
	}
	return int(math.Round(float64(points) * (1 - penalty)))
}

// isCorrect dispatches on question type.
func isCorrect(q *quiz.Question, userAnswer string) bool {
	switch q.Type {
	case quiz.TypeShortAnswer:
		return fuzzyMatch(q.CorrectAnswer, userAnswer)
	default:
		return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(q.CorrectAnswer))
	}
}

var (
	punctuation = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// cleanAnswer lowercases, strips punctuation and stopwords, and normalizes
// whitespace.
func cleanAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuation.ReplaceAllString(s, "")
	tokens := whitespace.Split(s, -1)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// fuzzyMatch implements the short-answer matcher: extract key words (tokens
// longer than 2 characters) from the reference and require 70% of them to be
// matched by user tokens. A token matches a key word when either contains the
// other as a substring.
func fuzzyMatch(reference, userAnswer string) bool {
	ref := cleanAnswer(reference)
	user := cleanAnswer(userAnswer)
	if ref == "" || user == "" {
		return ref == user
	}

	refTokens := strings.Fields(ref)
	var keyWords []string
	for _, tok := range refTokens {
		if len(tok) > 2 {
			keyWords = append(keyWords, tok)
		}
	}
	if len(keyWords) == 0 {
		return ref == user
	}

	userTokens := strings.Fields(user)
	matched := 0
	for _, kw := range keyWords {
		for _, ut := range userTokens {
			if strings.Contains(ut, kw) || strings.Contains(kw, ut) {
				matched++
				break
			}
		}
	}
	required := int(math.Ceil(keywordMatchRatio * float64(len(keyWords))))
	return matched >= required
}
