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
	"fmt"
	"strings"

	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/submission"
)

// GenerationParams describes the questions to generate.
type GenerationParams struct {
	Grade          int
	Subject        string
	TotalQuestions int
	Topics         []string
	// Difficulty is a fixed level, or mixed when Distribution is set.
	Difficulty quiz.Difficulty
	// Distribution is the three-way percentage mix used when Difficulty
	// is mixed.
	Distribution *quiz.DifficultyDistribution
}

// buildGenerationPrompt templates the question-generation prompt. The output
// contract is pinned to a bare JSON array with a fixed field schema.
func buildGenerationPrompt(p GenerationParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d quiz questions for grade %d students on the subject %q.\n",
		p.TotalQuestions, p.Grade, p.Subject)
	if len(p.Topics) > 0 {
		fmt.Fprintf(&b, "Cover these topics: %s.\n", strings.Join(p.Topics, ", "))
	}
	if p.Difficulty == quiz.DifficultyMixed && p.Distribution != nil {
		fmt.Fprintf(&b, "Difficulty mix: %d%% easy, %d%% medium, %d%% hard.\n",
			p.Distribution.Easy, p.Distribution.Medium, p.Distribution.Hard)
	} else if p.Difficulty != "" {
		fmt.Fprintf(&b, "All questions must be %s difficulty.\n", p.Difficulty)
	}
	b.WriteString(`
Respond with a bare JSON array only. No markdown, no code fences, no commentary, no wrapper object.
Each element must have exactly these fields:
{
  "questionText": string,
  "questionType": "mcq" | "true_false" | "short_answer",
  "options": [string] (only for mcq, 2-6 entries),
  "correctAnswer": string (for mcq it must equal one option exactly),
  "explanation": string,
  "difficulty": "easy" | "medium" | "hard",
  "points": integer 1-10,
  "hints": [string] (0-3 entries),
  "topic": string
}`)
	return b.String()
}

// buildHintPrompt templates the hint-generation prompt.
func buildHintPrompt(q quiz.Question) string {
	var b strings.Builder
	b.WriteString("Write one short hint for the following quiz question. ")
	b.WriteString("The hint must help without revealing the answer. ")
	b.WriteString("Respond with the hint text only, no quotes, no markdown.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", q.Text)
	if len(q.Options) > 0 {
		fmt.Fprintf(&b, "Options: %s\n", strings.Join(q.Options, "; "))
	}
	if q.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", q.Topic)
	}
	return b.String()
}

// buildEvaluationPrompt templates the submission-evaluation prompt. It feeds
// the wrong-answer details and requests exactly two actionable suggestions.
func buildEvaluationPrompt(questions []quiz.Question, answers []submission.Answer) string {
	byID := make(map[string]*quiz.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	var b strings.Builder
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	fmt.Fprintf(&b, "A student answered %d of %d quiz questions correctly.\n", correct, len(answers))

	wrong := 0
	for _, a := range answers {
		if a.IsCorrect {
			continue
		}
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		wrong++
		fmt.Fprintf(&b, "%d. Question: %s\n   Topic: %s\n   Student answer: %s\n   Correct answer: %s\n",
			wrong, q.Text, q.Topic, a.UserAnswer, q.CorrectAnswer)
	}
	if wrong == 0 {
		b.WriteString("The student answered every question correctly.\n")
	}

	b.WriteString(`
Respond with a bare JSON object only, no markdown and no commentary:
{
  "suggestions": [string, string] (exactly two actionable study suggestions),
  "strengths": [string],
  "weaknesses": [string]
}`)
	return b.String()
}
