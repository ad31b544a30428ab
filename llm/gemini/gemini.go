//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package gemini provides the Gemini fallback provider adapter.
package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/quizforge/quizcore/llm"
)

// defaultName identifies the adapter in logs and responses.
const defaultName = "gemini"

// Models is the slice of the GenAI client the adapter needs. It exists so
// tests can substitute the remote service.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// modelsWrapper adapts *genai.Models to the Models interface.
type modelsWrapper struct {
	models *genai.Models
}

// GenerateContent implements Models.
func (m *modelsWrapper) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.models.GenerateContent(ctx, model, contents, config)
}

// Provider implements llm.Provider over the Gemini generative-content API.
type Provider struct {
	models Models
	model  string
	name   string
}

var _ llm.Provider = (*Provider)(nil)

// options holds the adapter configuration.
type options struct {
	name         string
	clientConfig *genai.ClientConfig
	models       Models
}

// Option configures the adapter.
type Option func(*options)

// WithName overrides the provider name reported in responses.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithClientConfig sets the GenAI client configuration.
func WithClientConfig(cfg *genai.ClientConfig) Option {
	return func(o *options) { o.clientConfig = cfg }
}

// WithModels substitutes the models backend, mainly for tests.
func WithModels(m Models) Option {
	return func(o *options) { o.models = m }
}

// New creates an adapter for the given generative model.
func New(ctx context.Context, model string, opts ...Option) (*Provider, error) {
	o := options{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.models == nil {
		client, err := genai.NewClient(ctx, o.clientConfig)
		if err != nil {
			return nil, err
		}
		o.models = &modelsWrapper{models: client.Models}
	}
	return &Provider{
		models: o.models,
		model:  model,
		name:   o.name,
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return p.name }

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	config := &genai.GenerateContentConfig{}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	start := time.Now()
	rsp, err := p.models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), config)
	latency := time.Since(start)
	if err != nil {
		return nil, err
	}
	text := collectText(rsp)
	if text == "" {
		return nil, errors.New("generate content returned no text")
	}
	return &llm.Response{
		Text:     text,
		Provider: p.name,
		Latency:  latency,
	}, nil
}

// collectText concatenates the text parts of all candidates.
func collectText(rsp *genai.GenerateContentResponse) string {
	if rsp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range rsp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}
