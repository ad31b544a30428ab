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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/submission"
)

// fakeProvider serves canned responses or errors.
type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
	hang  time.Duration
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	f.calls++
	if f.hang > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.hang):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Text: f.text, Provider: f.name}, nil
}

const oneQuestion = `[{"questionText": "What is 2+2?", "questionType": "mcq",
	"options": ["3","4"], "correctAnswer": "4", "difficulty": "easy", "points": 1}]`

func TestGatewayPrimaryServes(t *testing.T) {
	primary := &fakeProvider{name: "openai", text: oneQuestion}
	fallback := &fakeProvider{name: "gemini", text: oneQuestion}
	g := NewGateway(primary, fallback)

	questions, err := g.GenerateQuestions(context.Background(), GenerationParams{
		Grade: 5, Subject: "Math", TotalQuestions: 1,
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestGatewayFailsOverOnTransportError(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("connection refused")}
	fallback := &fakeProvider{name: "gemini", text: oneQuestion}
	g := NewGateway(primary, fallback)

	questions, err := g.GenerateQuestions(context.Background(), GenerationParams{
		Grade: 5, Subject: "Math", TotalQuestions: 1,
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestGatewayFailsOverOnUnparseableBody(t *testing.T) {
	primary := &fakeProvider{name: "openai", text: "I'm sorry, I cannot do that."}
	fallback := &fakeProvider{name: "gemini", text: oneQuestion}
	g := NewGateway(primary, fallback)

	questions, err := g.GenerateQuestions(context.Background(), GenerationParams{
		Grade: 5, Subject: "Math", TotalQuestions: 1,
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 1, fallback.calls)
}

func TestGatewayFailsOverOnTimeout(t *testing.T) {
	primary := &fakeProvider{name: "openai", text: oneQuestion, hang: 200 * time.Millisecond}
	fallback := &fakeProvider{name: "gemini", text: oneQuestion}
	g := NewGateway(primary, fallback, WithGenerateTimeout(20*time.Millisecond))

	questions, err := g.GenerateQuestions(context.Background(), GenerationParams{
		Grade: 5, Subject: "Math", TotalQuestions: 1,
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 1, fallback.calls)
}

func TestGatewayExhausted(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("down")}
	fallback := &fakeProvider{name: "gemini", text: "not json either"}
	g := NewGateway(primary, fallback)

	_, err := g.GenerateQuestions(context.Background(), GenerationParams{
		Grade: 5, Subject: "Math", TotalQuestions: 1,
	})
	require.ErrorIs(t, err, ErrProviderExhausted)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestGatewayNilFallback(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("down")}
	g := NewGateway(primary, nil)

	_, err := g.GenerateQuestions(context.Background(), GenerationParams{
		Grade: 5, Subject: "Math", TotalQuestions: 1,
	})
	require.ErrorIs(t, err, ErrProviderExhausted)
}

func TestGenerateHintTrimsQuotes(t *testing.T) {
	primary := &fakeProvider{name: "openai", text: "\"Think about common denominators.\"\n"}
	g := NewGateway(primary, nil)

	hint, err := g.GenerateHint(context.Background(), quiz.Question{
		ID: "q_1", Text: "What is 1/2 + 1/4?", Type: quiz.TypeMCQ,
	})
	require.NoError(t, err)
	assert.Equal(t, "Think about common denominators.", hint)
}

func TestEvaluateSubmissionCarriesProvider(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("down")}
	fallback := &fakeProvider{name: "gemini", text: `{
		"suggestions": ["Review fractions", "Practice daily"],
		"strengths": ["arithmetic"],
		"weaknesses": ["fractions"]
	}`}
	g := NewGateway(primary, fallback)

	eval, err := g.EvaluateSubmission(context.Background(),
		[]quiz.Question{{ID: "q_1", Text: "t", Type: quiz.TypeMCQ, CorrectAnswer: "4"}},
		[]submission.Answer{{QuestionID: "q_1", UserAnswer: "3", IsCorrect: false}})
	require.NoError(t, err)
	assert.Equal(t, "gemini", eval.Provider)
	assert.Len(t, eval.Suggestions, 2)
}
