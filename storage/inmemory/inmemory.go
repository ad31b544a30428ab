//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides in-memory store implementations. They are the
// reference semantics for the persistence contracts and back the
// orchestration tests.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizcore/performance"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/storage"
	"github.com/quizforge/quizcore/submission"
)

// Store implements storage.QuizStore, storage.SubmissionStore and
// storage.PerformanceStore in process memory.
type Store struct {
	mu          sync.RWMutex
	quizzes     map[string]*quiz.Quiz
	submissions map[string]*submission.Submission
	// attempts indexes (userID, quizID) -> taken attempt numbers.
	attempts map[string]map[int]struct{}
	// histories is keyed by (userID, lowercased subject, grade).
	histories map[string]*performance.History

	now func() time.Time
}

var (
	_ storage.QuizStore        = (*Store)(nil)
	_ storage.SubmissionStore  = (*Store)(nil)
	_ storage.PerformanceStore = (*Store)(nil)
)

// Option configures the store.
type Option func(*Store)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		quizzes:     make(map[string]*quiz.Quiz),
		submissions: make(map[string]*submission.Submission),
		attempts:    make(map[string]map[int]struct{}),
		histories:   make(map[string]*performance.History),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func attemptKey(userID, quizID string) string {
	return userID + "|" + quizID
}

func historyKey(userID, subject string, grade int) string {
	return fmt.Sprintf("%s|%s|%d", userID, performance.SubjectKey(subject), grade)
}

// GetQuizByID implements storage.QuizStore.
func (s *Store) GetQuizByID(ctx context.Context, id string) (*quiz.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, storage.ErrQuizNotFound
	}
	return cloneQuiz(q), nil
}

// ListQuizzes implements storage.QuizStore. Questions are stripped.
func (s *Store) ListQuizzes(ctx context.Context, filter storage.QuizFilter, page storage.Page) ([]*quiz.Quiz, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*quiz.Quiz
	for _, q := range s.quizzes {
		if !matchQuiz(q, filter) {
			continue
		}
		c := cloneQuiz(q)
		c.Questions = nil
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

func matchQuiz(q *quiz.Quiz, f storage.QuizFilter) bool {
	if f.ActiveOnly && !q.IsActive {
		return false
	}
	if f.Subject != "" && !strings.EqualFold(q.Metadata.Subject, f.Subject) {
		return false
	}
	if f.Grade != 0 && q.Metadata.Grade != f.Grade {
		return false
	}
	if f.Difficulty != "" && q.Metadata.Difficulty != f.Difficulty {
		return false
	}
	if f.Category != "" && q.Metadata.Category != f.Category {
		return false
	}
	if f.CreatedBy != "" && q.CreatedBy != f.CreatedBy {
		return false
	}
	if f.IsPublic != nil && q.IsPublic != *f.IsPublic {
		return false
	}
	return true
}

// CreateQuiz implements storage.QuizStore.
func (s *Store) CreateQuiz(ctx context.Context, q *quiz.Quiz) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneQuiz(q)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.quizzes[c.ID] = c
	return c.ID, nil
}

// UpdateQuiz implements storage.QuizStore.
func (s *Store) UpdateQuiz(ctx context.Context, id string, patch storage.QuizPatch, expectedVersion int) (*quiz.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quizzes[id]
	if !ok {
		return nil, storage.ErrQuizNotFound
	}
	if q.Version != expectedVersion {
		return nil, storage.ErrVersionMismatch
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.Description != nil {
		q.Description = *patch.Description
	}
	if patch.IsPublic != nil {
		q.IsPublic = *patch.IsPublic
	}
	if patch.Metadata != nil {
		q.Metadata = *patch.Metadata
	}
	if patch.Questions != nil {
		q.Questions = append([]quiz.Question(nil), patch.Questions...)
	}
	q.Version++
	q.UpdatedAt = s.now()
	return cloneQuiz(q), nil
}

// SoftDelete implements storage.QuizStore.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quizzes[id]
	if !ok {
		return storage.ErrQuizNotFound
	}
	q.IsActive = false
	q.Version++
	q.UpdatedAt = s.now()
	return nil
}

// UpdateQuestionHints implements storage.QuizStore.
func (s *Store) UpdateQuestionHints(ctx context.Context, quizID, questionID string, hints []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quizzes[quizID]
	if !ok {
		return 0, storage.ErrQuizNotFound
	}
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			q.Questions[i].Hints = append([]string(nil), hints...)
			q.Version++
			q.UpdatedAt = s.now()
			return q.Version, nil
		}
	}
	return 0, storage.ErrQuestionNotFound
}

// CreateSubmission implements storage.SubmissionStore.
func (s *Store) CreateSubmission(ctx context.Context, sub *submission.Submission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptKey(sub.UserID, sub.QuizID)
	taken, ok := s.attempts[key]
	if !ok {
		taken = make(map[int]struct{})
		s.attempts[key] = taken
	}
	if _, exists := taken[sub.AttemptNumber]; exists {
		return "", storage.ErrDuplicateAttempt
	}

	c := cloneSubmission(sub)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	taken[sub.AttemptNumber] = struct{}{}
	s.submissions[c.ID] = c
	return c.ID, nil
}

// GetSubmission implements storage.SubmissionStore.
func (s *Store) GetSubmission(ctx context.Context, id, userID string) (*submission.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok || sub.UserID != userID {
		return nil, storage.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

// ListSubmissions implements storage.SubmissionStore.
func (s *Store) ListSubmissions(ctx context.Context, userID string, filter storage.SubmissionFilter, page storage.Page) ([]*submission.Submission, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*submission.Submission
	for _, sub := range s.submissions {
		if sub.UserID != userID {
			continue
		}
		if filter.QuizID != "" && sub.QuizID != filter.QuizID {
			continue
		}
		if !filter.From.IsZero() && sub.Timing.SubmittedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && sub.Timing.SubmittedAt.After(filter.To) {
			continue
		}
		matched = append(matched, cloneSubmission(sub))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timing.SubmittedAt.After(matched[j].Timing.SubmittedAt)
	})
	total := int64(len(matched))
	return paginate(matched, page), total, nil
}

// CountAttempts implements storage.SubmissionStore.
func (s *Store) CountAttempts(ctx context.Context, userID, quizID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts[attemptKey(userID, quizID)]), nil
}

// AttachEvaluation implements storage.SubmissionStore.
func (s *Store) AttachEvaluation(ctx context.Context, id string, eval *submission.AIEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return storage.ErrSubmissionNotFound
	}
	e := *eval
	sub.AIEvaluation = &e
	return nil
}

// GetPerformance implements performance.Store. A missing record yields
// (nil, nil).
func (s *Store) GetPerformance(ctx context.Context, userID, subject string, grade int) (*performance.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histories[historyKey(userID, subject, grade)]
	if !ok {
		return nil, nil
	}
	return cloneHistory(h), nil
}

// UpsertPerformance implements performance.Store with optimistic concurrency
// on LastCalculatedAt.
func (s *Store) UpsertPerformance(ctx context.Context, h *performance.History, expectedLastCalculatedAt *time.Time) (*performance.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey(h.UserID, h.Subject, h.Grade)
	current, exists := s.histories[key]
	if expectedLastCalculatedAt == nil {
		if exists {
			return nil, performance.ErrConflict
		}
	} else {
		if !exists || !current.LastCalculatedAt.Equal(*expectedLastCalculatedAt) {
			return nil, performance.ErrConflict
		}
	}
	c := cloneHistory(h)
	s.histories[key] = c
	return cloneHistory(c), nil
}

// ListPerformance implements storage.PerformanceStore.
func (s *Store) ListPerformance(ctx context.Context, userID string) ([]*performance.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*performance.History
	for _, h := range s.histories {
		if h.UserID == userID {
			out = append(out, cloneHistory(h))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

// ListForLeaderboard implements storage.PerformanceStore.
func (s *Store) ListForLeaderboard(ctx context.Context, filter storage.LeaderboardFilter, limit int) ([]storage.LeaderboardRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []storage.LeaderboardRow
	for _, h := range s.histories {
		if filter.Subject != "" && performance.SubjectKey(h.Subject) != performance.SubjectKey(filter.Subject) {
			continue
		}
		if filter.Grade != 0 && h.Grade != filter.Grade {
			continue
		}
		rows = append(rows, storage.LeaderboardRow{
			UserID:       h.UserID,
			Subject:      h.Subject,
			Grade:        h.Grade,
			AverageScore: h.Stats.AverageScore,
			BestScore:    h.Stats.BestScore,
			TotalQuizzes: h.Stats.TotalQuizzes,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AverageScore > rows[j].AverageScore })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func paginate[T any](items []T, page storage.Page) []T {
	if page.Offset >= len(items) {
		return nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items
}

func cloneQuiz(q *quiz.Quiz) *quiz.Quiz {
	c := *q
	c.Questions = make([]quiz.Question, len(q.Questions))
	for i, question := range q.Questions {
		cq := question
		cq.Options = append([]string(nil), question.Options...)
		cq.Hints = append([]string(nil), question.Hints...)
		c.Questions[i] = cq
	}
	c.Metadata.Tags = append([]string(nil), q.Metadata.Tags...)
	if q.Metadata.Adaptive != nil {
		a := *q.Metadata.Adaptive
		a.Reasoning = append([]string(nil), q.Metadata.Adaptive.Reasoning...)
		a.SuggestedTopics = append([]string(nil), q.Metadata.Adaptive.SuggestedTopics...)
		c.Metadata.Adaptive = &a
	}
	return &c
}

func cloneSubmission(s *submission.Submission) *submission.Submission {
	c := *s
	c.Answers = append([]submission.Answer(nil), s.Answers...)
	if s.AIEvaluation != nil {
		e := *s.AIEvaluation
		e.Suggestions = append([]string(nil), s.AIEvaluation.Suggestions...)
		e.Strengths = append([]string(nil), s.AIEvaluation.Strengths...)
		e.Weaknesses = append([]string(nil), s.AIEvaluation.Weaknesses...)
		c.AIEvaluation = &e
	}
	return &c
}

func cloneHistory(h *performance.History) *performance.History {
	c := *h
	c.RecentPerformance = append([]performance.RecentEntry(nil), h.RecentPerformance...)
	c.TopicWiseStats = append([]performance.TopicStats(nil), h.TopicWiseStats...)
	return &c
}
