//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quizforge/quizcore/performance"
	"github.com/quizforge/quizcore/quiz"
	"github.com/quizforge/quizcore/storage"
	"github.com/quizforge/quizcore/submission"
)

// Collection names.
const (
	collQuizzes     = "quizzes"
	collSubmissions = "submissions"
	collPerformance = "performance_history"
)

const defaultDatabase = "quizforge"

// Store implements the persistence contracts over MongoDB.
type Store struct {
	client   Client
	database string
	now      func() time.Time
}

var (
	_ storage.QuizStore        = (*Store)(nil)
	_ storage.SubmissionStore  = (*Store)(nil)
	_ storage.PerformanceStore = (*Store)(nil)
)

// options holds the store configuration.
type storeOptions struct {
	uri      string
	database string
	client   Client
	now      func() time.Time
}

// Option configures the store.
type Option func(*storeOptions)

// WithURI sets the MongoDB connection string.
func WithURI(uri string) Option {
	return func(o *storeOptions) { o.uri = uri }
}

// WithDatabase sets the database name.
func WithDatabase(name string) Option {
	return func(o *storeOptions) { o.database = name }
}

// WithClient substitutes a pre-built client, mainly for tests.
func WithClient(c Client) Option {
	return func(o *storeOptions) { o.client = c }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// New creates a MongoDB-backed store and connects unless a client is supplied.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	o := storeOptions{database: defaultDatabase, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		client, err := NewClient(ctx, o.uri)
		if err != nil {
			return nil, err
		}
		o.client = client
	}
	return &Store{client: o.client, database: o.database, now: o.now}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the store depends on: attempt uniqueness,
// the performance identity and the submission listing order.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.client.CreateIndexes(ctx, s.database, collSubmissions, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "quizId", Value: 1},
				{Key: "attemptNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "timing.submittedAt", Value: -1},
			},
		},
	}); err != nil {
		return fmt.Errorf("mongodb: submissions indexes: %w", err)
	}
	if err := s.client.CreateIndexes(ctx, s.database, collPerformance, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "subjectKey", Value: 1},
				{Key: "grade", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return fmt.Errorf("mongodb: performance indexes: %w", err)
	}
	if err := s.client.CreateIndexes(ctx, s.database, collQuizzes, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "metadata.subject", Value: 1},
				{Key: "metadata.grade", Value: 1},
				{Key: "isActive", Value: 1},
			},
		},
	}); err != nil {
		return fmt.Errorf("mongodb: quizzes indexes: %w", err)
	}
	return nil
}

// GetQuizByID implements storage.QuizStore.
func (s *Store) GetQuizByID(ctx context.Context, id string) (*quiz.Quiz, error) {
	var q quiz.Quiz
	err := s.client.FindOne(ctx, s.database, collQuizzes, bson.M{"_id": id}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: get quiz: %w", err)
	}
	return &q, nil
}

func quizFilterQuery(f storage.QuizFilter) bson.M {
	query := bson.M{}
	if f.ActiveOnly {
		query["isActive"] = true
	}
	if f.Subject != "" {
		query["metadata.subject"] = f.Subject
	}
	if f.Grade != 0 {
		query["metadata.grade"] = f.Grade
	}
	if f.Difficulty != "" {
		query["metadata.difficulty"] = f.Difficulty
	}
	if f.Category != "" {
		query["metadata.category"] = f.Category
	}
	if f.CreatedBy != "" {
		query["createdBy"] = f.CreatedBy
	}
	if f.IsPublic != nil {
		query["isPublic"] = *f.IsPublic
	}
	return query
}

// ListQuizzes implements storage.QuizStore. Questions are projected out.
func (s *Store) ListQuizzes(ctx context.Context, filter storage.QuizFilter, page storage.Page) ([]*quiz.Quiz, int64, error) {
	query := quizFilterQuery(filter)
	total, err := s.client.CountDocuments(ctx, s.database, collQuizzes, query)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: count quizzes: %w", err)
	}

	findOpts := options.Find().
		SetProjection(bson.M{"questions": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page.Offset))
	if page.Limit > 0 {
		findOpts.SetLimit(int64(page.Limit))
	}
	cursor, err := s.client.Find(ctx, s.database, collQuizzes, query, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: list quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	var quizzes []*quiz.Quiz
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, 0, fmt.Errorf("mongodb: decode quizzes: %w", err)
	}
	return quizzes, total, nil
}

// CreateQuiz implements storage.QuizStore.
func (s *Store) CreateQuiz(ctx context.Context, q *quiz.Quiz) (string, error) {
	doc := *q
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := s.client.InsertOne(ctx, s.database, collQuizzes, &doc); err != nil {
		return "", fmt.Errorf("mongodb: create quiz: %w", err)
	}
	return doc.ID, nil
}

// UpdateQuiz implements storage.QuizStore with optimistic concurrency on the
// version field.
func (s *Store) UpdateQuiz(ctx context.Context, id string, patch storage.QuizPatch, expectedVersion int) (*quiz.Quiz, error) {
	set := bson.M{"updatedAt": s.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsPublic != nil {
		set["isPublic"] = *patch.IsPublic
	}
	if patch.Metadata != nil {
		set["metadata"] = *patch.Metadata
	}
	if patch.Questions != nil {
		set["questions"] = patch.Questions
	}

	var updated quiz.Quiz
	err := s.client.FindOneAndUpdate(ctx, s.database, collQuizzes,
		bson.M{"_id": id, "version": expectedVersion},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a missing quiz from a lost race.
		if _, getErr := s.GetQuizByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, storage.ErrVersionMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: update quiz: %w", err)
	}
	return &updated, nil
}

// SoftDelete implements storage.QuizStore.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	result, err := s.client.UpdateOne(ctx, s.database, collQuizzes,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"isActive": false, "updatedAt": s.now()},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("mongodb: soft delete quiz: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrQuizNotFound
	}
	return nil
}

// UpdateQuestionHints implements storage.QuizStore.
func (s *Store) UpdateQuestionHints(ctx context.Context, quizID, questionID string, hints []string) (int, error) {
	var updated quiz.Quiz
	err := s.client.FindOneAndUpdate(ctx, s.database, collQuizzes,
		bson.M{"_id": quizID, "questions.questionId": questionID},
		bson.M{
			"$set": bson.M{"questions.$.hints": hints, "updatedAt": s.now()},
			"$inc": bson.M{"version": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetQuizByID(ctx, quizID); getErr != nil {
			return 0, getErr
		}
		return 0, storage.ErrQuestionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("mongodb: update question hints: %w", err)
	}
	return updated.Version, nil
}

// CreateSubmission implements storage.SubmissionStore. The unique attempt
// index turns concurrent same-attempt inserts into ErrDuplicateAttempt.
func (s *Store) CreateSubmission(ctx context.Context, sub *submission.Submission) (string, error) {
	doc := *sub
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := s.client.InsertOne(ctx, s.database, collSubmissions, &doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", storage.ErrDuplicateAttempt
		}
		return "", fmt.Errorf("mongodb: create submission: %w", err)
	}
	return doc.ID, nil
}

// GetSubmission implements storage.SubmissionStore.
func (s *Store) GetSubmission(ctx context.Context, id, userID string) (*submission.Submission, error) {
	var sub submission.Submission
	err := s.client.FindOne(ctx, s.database, collSubmissions,
		bson.M{"_id": id, "userId": userID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: get submission: %w", err)
	}
	return &sub, nil
}

// ListSubmissions implements storage.SubmissionStore.
func (s *Store) ListSubmissions(ctx context.Context, userID string, filter storage.SubmissionFilter, page storage.Page) ([]*submission.Submission, int64, error) {
	query := bson.M{"userId": userID}
	if filter.QuizID != "" {
		query["quizId"] = filter.QuizID
	}
	timeRange := bson.M{}
	if !filter.From.IsZero() {
		timeRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		timeRange["$lte"] = filter.To
	}
	if len(timeRange) > 0 {
		query["timing.submittedAt"] = timeRange
	}

	total, err := s.client.CountDocuments(ctx, s.database, collSubmissions, query)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: count submissions: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "timing.submittedAt", Value: -1}}).
		SetSkip(int64(page.Offset))
	if page.Limit > 0 {
		findOpts.SetLimit(int64(page.Limit))
	}
	cursor, err := s.client.Find(ctx, s.database, collSubmissions, query, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb: list submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []*submission.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, 0, fmt.Errorf("mongodb: decode submissions: %w", err)
	}
	return subs, total, nil
}

// CountAttempts implements storage.SubmissionStore.
func (s *Store) CountAttempts(ctx context.Context, userID, quizID string) (int, error) {
	n, err := s.client.CountDocuments(ctx, s.database, collSubmissions,
		bson.M{"userId": userID, "quizId": quizID})
	if err != nil {
		return 0, fmt.Errorf("mongodb: count attempts: %w", err)
	}
	return int(n), nil
}

// AttachEvaluation implements storage.SubmissionStore.
func (s *Store) AttachEvaluation(ctx context.Context, id string, eval *submission.AIEvaluation) error {
	result, err := s.client.UpdateOne(ctx, s.database, collSubmissions,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"aiEvaluation": eval}})
	if err != nil {
		return fmt.Errorf("mongodb: attach evaluation: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrSubmissionNotFound
	}
	return nil
}

// historyDoc adds the normalized subject key used by the unique identity
// index to the persisted history.
type historyDoc struct {
	SubjectKey          string `bson:"subjectKey"`
	performance.History `bson:",inline"`
}

// GetPerformance implements performance.Store. A missing record yields
// (nil, nil).
func (s *Store) GetPerformance(ctx context.Context, userID, subject string, grade int) (*performance.History, error) {
	var doc historyDoc
	err := s.client.FindOne(ctx, s.database, collPerformance, bson.M{
		"userId":     userID,
		"subjectKey": performance.SubjectKey(subject),
		"grade":      grade,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: get performance: %w", err)
	}
	return &doc.History, nil
}

// UpsertPerformance implements performance.Store with optimistic concurrency
// on lastCalculatedAt. expectedLastCalculatedAt nil asserts the record does
// not exist yet.
func (s *Store) UpsertPerformance(ctx context.Context, h *performance.History, expectedLastCalculatedAt *time.Time) (*performance.History, error) {
	doc := historyDoc{SubjectKey: performance.SubjectKey(h.Subject), History: *h}

	if expectedLastCalculatedAt == nil {
		if _, err := s.client.InsertOne(ctx, s.database, collPerformance, &doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, performance.ErrConflict
			}
			return nil, fmt.Errorf("mongodb: insert performance: %w", err)
		}
		return &doc.History, nil
	}

	result, err := s.client.UpdateOne(ctx, s.database, collPerformance,
		bson.M{
			"userId":           h.UserID,
			"subjectKey":       doc.SubjectKey,
			"grade":            h.Grade,
			"lastCalculatedAt": *expectedLastCalculatedAt,
		},
		bson.M{"$set": &doc})
	if err != nil {
		return nil, fmt.Errorf("mongodb: update performance: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, performance.ErrConflict
	}
	return &doc.History, nil
}

// ListPerformance implements storage.PerformanceStore.
func (s *Store) ListPerformance(ctx context.Context, userID string) ([]*performance.History, error) {
	cursor, err := s.client.Find(ctx, s.database, collPerformance,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "subjectKey", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb: list performance: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []historyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decode performance: %w", err)
	}
	histories := make([]*performance.History, 0, len(docs))
	for i := range docs {
		histories = append(histories, &docs[i].History)
	}
	return histories, nil
}

// ListForLeaderboard implements storage.PerformanceStore.
func (s *Store) ListForLeaderboard(ctx context.Context, filter storage.LeaderboardFilter, limit int) ([]storage.LeaderboardRow, error) {
	query := bson.M{}
	if filter.Subject != "" {
		query["subjectKey"] = performance.SubjectKey(filter.Subject)
	}
	if filter.Grade != 0 {
		query["grade"] = filter.Grade
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "stats.averageScore", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	cursor, err := s.client.Find(ctx, s.database, collPerformance, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: list leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []historyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decode leaderboard: %w", err)
	}
	rows := make([]storage.LeaderboardRow, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, storage.LeaderboardRow{
			UserID:       doc.UserID,
			Subject:      doc.Subject,
			Grade:        doc.Grade,
			AverageScore: doc.Stats.AverageScore,
			BestScore:    doc.Stats.BestScore,
			TotalQuizzes: doc.Stats.TotalQuizzes,
		})
	}
	return rows, nil
}
