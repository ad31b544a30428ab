//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package submission provides the submission aggregate.
package submission

import (
	"strings"
	"time"
)

// UserAnswer is a raw answer supplied by the client before grading.
type UserAnswer struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"userAnswer"`
	// TimeSpent is the seconds the user spent on this question.
	TimeSpent int `json:"timeSpent"`
	HintsUsed int `json:"hintsUsed"`
}

// Answer is a graded answer within a submission.
type Answer struct {
	QuestionID   string `json:"questionId" bson:"questionId"`
	UserAnswer   string `json:"userAnswer" bson:"userAnswer"`
	IsCorrect    bool   `json:"isCorrect" bson:"isCorrect"`
	PointsEarned int    `json:"pointsEarned" bson:"pointsEarned"`
	TimeSpent    int    `json:"timeSpent" bson:"timeSpent"`
	HintsUsed    int    `json:"hintsUsed" bson:"hintsUsed"`
	// Topic is carried for the performance projection; it is not part of
	// the wire format.
	Topic string `json:"-" bson:"topic,omitempty"`
}

// Scoring is the aggregate scoring summary of a submission.
type Scoring struct {
	TotalQuestions  int    `json:"totalQuestions" bson:"totalQuestions"`
	CorrectAnswers  int    `json:"correctAnswers" bson:"correctAnswers"`
	TotalPoints     int    `json:"totalPoints" bson:"totalPoints"`
	ScorePercentage int    `json:"scorePercentage" bson:"scorePercentage"`
	Grade           string `json:"grade" bson:"grade"`
}

// Timing records when an attempt ran. TotalTimeSpent is derived from the
// submitted and started timestamps; the derivation is authoritative.
type Timing struct {
	StartedAt      time.Time `json:"startedAt" bson:"startedAt"`
	SubmittedAt    time.Time `json:"submittedAt" bson:"submittedAt"`
	TotalTimeSpent int       `json:"totalTimeSpent" bson:"totalTimeSpent"`
}

// AIEvaluation is the best-effort evaluation attached after grading.
type AIEvaluation struct {
	Provider    string    `json:"provider" bson:"provider"`
	Suggestions []string  `json:"suggestions" bson:"suggestions"`
	Strengths   []string  `json:"strengths" bson:"strengths"`
	Weaknesses  []string  `json:"weaknesses" bson:"weaknesses"`
	EvaluatedAt time.Time `json:"evaluatedAt" bson:"evaluatedAt"`
}

// Metadata carries request-level context for a submission.
type Metadata struct {
	IPAddress  string `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent  string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	DeviceType string `json:"deviceType" bson:"deviceType"`
}

// Submission is the submission aggregate root. Immutable once completed.
type Submission struct {
	ID     string `json:"submissionId" bson:"_id"`
	QuizID string `json:"quizId" bson:"quizId"`
	UserID string `json:"userId" bson:"userId"`
	// AttemptNumber is 1-based and monotonic per (user, quiz).
	AttemptNumber int           `json:"attemptNumber" bson:"attemptNumber"`
	Answers       []Answer      `json:"answers" bson:"answers"`
	Scoring       Scoring       `json:"scoring" bson:"scoring"`
	Timing        Timing        `json:"timing" bson:"timing"`
	AIEvaluation  *AIEvaluation `json:"aiEvaluation,omitempty" bson:"aiEvaluation,omitempty"`
	Metadata      Metadata      `json:"metadata" bson:"metadata"`
	IsCompleted   bool          `json:"isCompleted" bson:"isCompleted"`
}

// Device type constants.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

var mobileMarkers = []string{"Mobile", "Android", "iPhone", "iPad"}

// DetectDeviceType classifies a user-agent string.
func DetectDeviceType(userAgent string) string {
	for _, marker := range mobileMarkers {
		if strings.Contains(userAgent, marker) {
			return DeviceMobile
		}
	}
	if strings.Contains(userAgent, "Tablet") {
		return DeviceTablet
	}
	return DeviceDesktop
}
