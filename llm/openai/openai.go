//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package openai provides the OpenAI-compatible primary provider adapter.
package openai

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/quizforge/quizcore/llm"
)

// defaultName identifies the adapter in logs and responses.
const defaultName = "openai"

// Provider implements llm.Provider over the OpenAI chat-completions API.
// It is safe for concurrent use; the underlying client pools connections.
type Provider struct {
	client openai.Client
	model  string
	name   string
}

var _ llm.Provider = (*Provider)(nil)

// options holds the adapter configuration.
type options struct {
	apiKey        string
	baseURL       string
	name          string
	openaiOptions []openaiopt.RequestOption
}

// Option configures the adapter.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL sets a custom base URL for OpenAI-compatible endpoints.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithName overrides the provider name reported in responses.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithOpenAIOptions passes extra request options to the underlying client.
func WithOpenAIOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.openaiOptions = append(o.openaiOptions, opts...) }
}

// New creates an adapter for the given chat model.
func New(model string, opts ...Option) *Provider {
	o := options{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.openaiOptions...)

	return &Provider{
		client: openai.NewClient(clientOpts...),
		model:  model,
		name:   o.name,
	}
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return p.name }

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return &llm.Response{
		Text:     completion.Choices[0].Message.Content,
		Provider: p.name,
		Latency:  latency,
	}, nil
}
