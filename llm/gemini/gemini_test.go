//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/quizforge/quizcore/llm"
)

// fakeModels records the call and returns a canned response.
type fakeModels struct {
	gotModel  string
	gotConfig *genai.GenerateContentConfig
	rsp       *genai.GenerateContentResponse
	err       error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	return f.rsp, f.err
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}},
		},
	}
}

func TestCompleteCollectsText(t *testing.T) {
	models := &fakeModels{rsp: textResponse(
		&genai.Part{Text: "part one "},
		&genai.Part{Text: "part two"},
	)}
	p, err := New(context.Background(), "gemini-2.0-flash", WithModels(models))
	require.NoError(t, err)

	rsp, err := p.Complete(context.Background(), &llm.Request{
		Prompt:          "generate",
		MaxOutputTokens: 256,
		Temperature:     0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", rsp.Text)
	assert.Equal(t, "gemini", rsp.Provider)

	assert.Equal(t, "gemini-2.0-flash", models.gotModel)
	require.NotNil(t, models.gotConfig)
	assert.EqualValues(t, 256, models.gotConfig.MaxOutputTokens)
	require.NotNil(t, models.gotConfig.Temperature)
	assert.EqualValues(t, 0.5, *models.gotConfig.Temperature)
}

func TestCompleteSkipsThoughtParts(t *testing.T) {
	models := &fakeModels{rsp: textResponse(
		&genai.Part{Text: "internal reasoning", Thought: true},
		&genai.Part{Text: "the answer"},
	)}
	p, err := New(context.Background(), "gemini-2.0-flash", WithModels(models))
	require.NoError(t, err)

	rsp, err := p.Complete(context.Background(), &llm.Request{Prompt: "generate"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", rsp.Text)
}

func TestCompleteEmptyResponse(t *testing.T) {
	models := &fakeModels{rsp: &genai.GenerateContentResponse{}}
	p, err := New(context.Background(), "gemini-2.0-flash", WithModels(models))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), &llm.Request{Prompt: "generate"})
	require.Error(t, err)
}

func TestCompletePropagatesError(t *testing.T) {
	models := &fakeModels{err: errors.New("quota exceeded")}
	p, err := New(context.Background(), "gemini-2.0-flash", WithModels(models))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), &llm.Request{Prompt: "generate"})
	require.ErrorContains(t, err, "quota exceeded")
}

func TestWithNameOverride(t *testing.T) {
	p, err := New(context.Background(), "gemini-2.0-flash",
		WithModels(&fakeModels{}), WithName("vertex"))
	require.NoError(t, err)
	assert.Equal(t, "vertex", p.Name())
}
