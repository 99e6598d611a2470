// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package prompt

import (
	"errors"

	"github.com/AccelByte/extend-dynamic-rating/pkg/rating"
)

var (
	// ErrInvalidRequest is returned when a request lacks a user or policy.
	ErrInvalidRequest = errors.New("prompt: invalid request")
	// ErrPolicyNotFound is returned for an unknown or disabled policy.
	ErrPolicyNotFound = errors.New("prompt: policy not found")
	// ErrUnknownRating is returned when a rating response carries no usable value.
	ErrUnknownRating = errors.New("prompt: unknown rating")
	// ErrUnknownResponse is returned for an unsupported response kind.
	ErrUnknownResponse = errors.New("prompt: unknown response kind")
)

// Request identifies one user's state under one policy.
type Request struct {
	Namespace string
	UserID    string
	PolicyID  string
}

// ResponseKind is the user's answer to a prompt.
type ResponseKind string

const (
	// ResponseRated means the user rated the app in the store.
	ResponseRated ResponseKind = "rated"
	// ResponseFeedback means the user sent feedback instead of rating.
	ResponseFeedback ResponseKind = "feedback"
	// ResponseRemind asks to be prompted again later.
	ResponseRemind ResponseKind = "remind"
	// ResponseDismiss asks never to be prompted again.
	ResponseDismiss ResponseKind = "dismiss"
	// ResponseRating carries a star rating classified against the policy threshold.
	ResponseRating ResponseKind = "rating"
)

// ResponseInput is a recorded prompt response.
type ResponseInput struct {
	Kind   ResponseKind `json:"kind"`
	Rating float64      `json:"rating,omitempty"`
}

// Decision is the prompt eligibility of a user at one instant.
type Decision struct {
	ShouldPrompt bool         `json:"shouldPrompt"`
	Requesting   bool         `json:"requesting"`
	DueRating    bool         `json:"dueRating"`
	DueCount     bool         `json:"dueCount"`
	DueReminder  bool         `json:"dueReminder"`
	State        rating.State `json:"state"`
}

// ResponseResult is the outcome of RecordResponse.
type ResponseResult struct {
	Kind    ResponseKind `json:"kind"`
	Outcome string       `json:"outcome,omitempty"`
	State   rating.State `json:"state"`
}

func newDecision(ev rating.Evaluation, state rating.State) Decision {
	return Decision{
		ShouldPrompt: ev.ShouldPrompt,
		Requesting:   ev.Requesting,
		DueRating:    ev.DueRating,
		DueCount:     ev.DueCount,
		DueReminder:  ev.DueReminder,
		State:        state,
	}
}
