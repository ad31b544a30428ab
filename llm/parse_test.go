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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizcore/quiz"
)

const questionArray = `[
  {
    "questionText": "What is 2+2?",
    "questionType": "mcq",
    "options": ["3", "4", "5", "6"],
    "correctAnswer": "4",
    "explanation": "Basic addition.",
    "difficulty": "easy",
    "points": 2,
    "hints": ["count on your fingers"],
    "topic": "arithmetic"
  },
  {
    "questionText": "The earth is flat.",
    "questionType": "true_false",
    "correctAnswer": "false",
    "difficulty": "medium",
    "points": 1,
    "topic": "geography"
  }
]`

func TestParseQuestionsWrappingVariants(t *testing.T) {
	variants := map[string]string{
		"bare":           questionArray,
		"fenced":         "```json\n" + questionArray + "\n```",
		"questions key":  `{"questions": ` + questionArray + `}`,
		"items key":      `{"items": ` + questionArray + `}`,
		"commentary":     "Sure! Here are your questions:\n" + questionArray + "\nLet me know if you need more.",
		"fenced wrapped": "Here you go:\n```\n" + `{"data": ` + questionArray + `}` + "\n```",
	}

	var want []quiz.Question
	for name, raw := range variants {
		got, err := parseQuestions(raw)
		require.NoError(t, err, "variant %s", name)
		require.Len(t, got, 2, "variant %s", name)
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, "variant %s", name)
	}

	assert.Equal(t, "q_1", want[0].ID)
	assert.Equal(t, quiz.TypeMCQ, want[0].Type)
	assert.Equal(t, "4", want[0].CorrectAnswer)
	assert.Equal(t, 2, want[0].Points)
	assert.Equal(t, quiz.TypeTrueFalse, want[1].Type)
	assert.Equal(t, quiz.DifficultyMedium, want[1].Difficulty)
}

func TestParseQuestionsAliasesAndDefaults(t *testing.T) {
	raw := `[{"question": "Name a color.", "type": "short answer", "answer": "blue", "points": 99}]`
	got, err := parseQuestions(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Name a color.", got[0].Text)
	assert.Equal(t, quiz.TypeShortAnswer, got[0].Type)
	assert.Equal(t, "blue", got[0].CorrectAnswer)
	// Points clamp to 10; difficulty defaults to medium.
	assert.Equal(t, 10, got[0].Points)
	assert.Equal(t, quiz.DifficultyMedium, got[0].Difficulty)
}

func TestParseQuestionsFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I could not generate questions right now."},
		{"empty array", "[]"},
		{"object without known key", `{"stuff": []}`},
		{"element not object", `[1, 2, 3]`},
		{"question without text", `[{"questionType": "mcq"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseQuestions(tt.raw)
			require.ErrorIs(t, err, errParse)
		})
	}
}

func TestParseQuestionsHintCap(t *testing.T) {
	raw := `[{"questionText": "q", "questionType": "mcq",
		"hints": ["1","2","3","4","5","6","7"]}]`
	got, err := parseQuestions(raw)
	require.NoError(t, err)
	assert.Len(t, got[0].Hints, 5)
}

func TestParseEvaluationExactlyTwoSuggestions(t *testing.T) {
	raw := "```json\n" + `{
		"suggestions": ["Practice fractions", "Reread chapter 3", "A third one"],
		"strengths": ["mental math"],
		"weaknesses": ["word problems"]
	}` + "\n```"
	eval, err := parseEvaluation(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Practice fractions", "Reread chapter 3"}, eval.Suggestions)
	assert.Equal(t, []string{"mental math"}, eval.Strengths)
	assert.Equal(t, []string{"word problems"}, eval.Weaknesses)
}

func TestParseEvaluationPadsShortSuggestions(t *testing.T) {
	eval, err := parseEvaluation(`{"suggestions": ["Practice more"]}`)
	require.NoError(t, err)
	require.Len(t, eval.Suggestions, 2)
	assert.Equal(t, "Practice more", eval.Suggestions[0])

	eval, err = parseEvaluation(`{"strengths": ["speed"]}`)
	require.NoError(t, err)
	assert.Equal(t, defaultSuggestions, eval.Suggestions)
	assert.NotNil(t, eval.Weaknesses)
}

func TestExtractJSONBounds(t *testing.T) {
	got, err := extractJSON("noise [1] trailing ] here")
	require.NoError(t, err)
	assert.Equal(t, "[1] trailing ]", got)

	_, err = extractJSON("] backwards [")
	require.ErrorIs(t, err, errParse)
}
