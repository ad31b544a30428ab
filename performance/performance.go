//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package performance provides the rolling per-subject performance history
// and its projector.
package performance

import (
	"strings"
	"time"

	"github.com/quizforge/quizcore/quiz"
)

// RecentLimit bounds the recentPerformance ring.
const RecentLimit = 20

// Stats are the aggregate per-subject statistics.
type Stats struct {
	TotalQuizzes int     `json:"totalQuizzes" bson:"totalQuizzes"`
	AverageScore float64 `json:"averageScore" bson:"averageScore"`
	BestScore    float64 `json:"bestScore" bson:"bestScore"`
	WorstScore   float64 `json:"worstScore" bson:"worstScore"`
	// TotalTimeSpent is in minutes.
	TotalTimeSpent int     `json:"totalTimeSpentMinutes" bson:"totalTimeSpentMinutes"`
	Consistency    float64 `json:"consistency" bson:"consistency"`
}

// RecentEntry is one entry of the bounded recent-performance ring,
// newest first.
type RecentEntry struct {
	Date       time.Time       `json:"date" bson:"date"`
	Score      float64         `json:"score" bson:"score"`
	QuizID     string          `json:"quizId" bson:"quizId"`
	Difficulty quiz.Difficulty `json:"difficulty" bson:"difficulty"`
}

// Trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Trends summarizes the score trajectory.
type Trends struct {
	Improving             bool            `json:"improving" bson:"improving"`
	TrendDirection        string          `json:"trendDirection" bson:"trendDirection"`
	RecommendedDifficulty quiz.Difficulty `json:"recommendedDifficulty" bson:"recommendedDifficulty"`
}

// TopicStats tracks accuracy and pace per topic.
type TopicStats struct {
	Topic              string  `json:"topic" bson:"topic"`
	TotalQuestions     int     `json:"totalQuestions" bson:"totalQuestions"`
	CorrectAnswers     int     `json:"correctAnswers" bson:"correctAnswers"`
	Accuracy           float64 `json:"accuracy" bson:"accuracy"`
	AvgTimePerQuestion float64 `json:"avgTimePerQuestion" bson:"avgTimePerQuestion"`
}

// History is the materialized per-(user, subject, grade) performance view.
// It is derived strictly from submissions; the Projector is the sole mutator.
type History struct {
	UserID string `json:"userId" bson:"userId"`
	// Subject keeps its original casing; lookups are case-insensitive.
	Subject           string        `json:"subject" bson:"subject"`
	Grade             int           `json:"grade" bson:"grade"`
	Stats             Stats         `json:"stats" bson:"stats"`
	RecentPerformance []RecentEntry `json:"recentPerformance" bson:"recentPerformance"`
	Trends            Trends        `json:"trends" bson:"trends"`
	TopicWiseStats    []TopicStats  `json:"topicWiseStats" bson:"topicWiseStats"`
	LastCalculatedAt  time.Time     `json:"lastCalculatedAt" bson:"lastCalculatedAt"`
}

// SubjectKey normalizes a subject for case-insensitive identity.
func SubjectKey(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// NewHistory returns a zeroed record for a first projection.
func NewHistory(userID, subject string, grade int) *History {
	return &History{
		UserID:  userID,
		Subject: subject,
		Grade:   grade,
		Trends: Trends{
			Improving:             true,
			TrendDirection:        TrendStable,
			RecommendedDifficulty: quiz.DifficultyMedium,
		},
	}
}
