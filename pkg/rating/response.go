// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rating

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Outcome classifies a rating value.
type Outcome int

const (
	// OutcomeUnknown means nothing was selected yet.
	OutcomeUnknown Outcome = iota
	// OutcomeNegative is treated as feedback rather than a store rating.
	OutcomeNegative
	// OutcomePositive is a genuine rating submission.
	OutcomePositive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNegative:
		return "negative"
	case OutcomePositive:
		return "positive"
	default:
		return "unknown"
	}
}

// Classify maps a rating to an Outcome given the positive threshold.
func Classify(rating, positive float64) Outcome {
	switch {
	case rating <= 0:
		return OutcomeUnknown
	case rating < positive:
		return OutcomeNegative
	default:
		return OutcomePositive
	}
}

// Action is the confirm action a prompt offers for the current rating.
type Action string

const (
	ActionRate     Action = "rate"
	ActionFeedback Action = "feedback"
)

// RateAction returns the confirm action for rating and whether it is enabled.
// Unknown ratings keep the rate action but disable it.
func RateAction(rating, positive float64) (Action, bool) {
	switch Classify(rating, positive) {
	case OutcomeNegative:
		return ActionFeedback, true
	case OutcomePositive:
		return ActionRate, true
	default:
		return ActionRate, false
	}
}

// Listener receives the user's rating once it is confirmed.
type Listener interface {
	// OnRate is called for a positive rating.
	OnRate(ctx context.Context, rating float64)

	// OnFeedback is called for a negative rating.
	OnFeedback(ctx context.Context, rating float64)
}

// Presenter shows a rating prompt and reports back through the Responder.
type Presenter interface {
	Present(ctx context.Context, responder *Responder) error
}

// Responder routes prompt outcomes to a Listener and records them on the engine.
// A Responder with a nil engine or listener does nothing.
type Responder struct {
	engine   *Engine
	listener Listener
	positive float64
}

// NewResponder creates a responder using RatingPositive as the threshold.
func NewResponder(engine *Engine, listener Listener) *Responder {
	return &Responder{
		engine:   engine,
		listener: listener,
		positive: RatingPositive,
	}
}

// WithPositiveThreshold overrides the minimum positive rating.
func (r *Responder) WithPositiveThreshold(positive float64) *Responder {
	if positive > 0 {
		r.positive = positive
	}
	return r
}

// PositiveThreshold returns the minimum positive rating.
func (r *Responder) PositiveThreshold() float64 {
	return r.positive
}

// OnRatingSelected handles a confirmed rating. Negative ratings go to
// OnFeedback, positive ones to OnRate; either way requests stop.
// Returns false without acting for an unknown rating or a missing collaborator.
func (r *Responder) OnRatingSelected(ctx context.Context, rating float64) (bool, error) {
	if r == nil || r.engine == nil || r.listener == nil {
		return false, nil
	}

	outcome := Classify(rating, r.positive)
	switch outcome {
	case OutcomeNegative:
		r.listener.OnFeedback(ctx, rating)
	case OutcomePositive:
		r.listener.OnRate(ctx, rating)
	default:
		logrus.Debugf("ignoring unknown rating %v for %s", rating, r.engine.BaseKey())
		return false, nil
	}

	logrus.Infof("rating %v (%s) selected for %s", rating, outcome, r.engine.BaseKey())
	if err := r.engine.RecordResponse(ctx, false); err != nil {
		return true, err
	}
	return true, nil
}

// OnRatingSkipped handles "remind me later" (remind=true) or "never ask again".
func (r *Responder) OnRatingSkipped(ctx context.Context, remind bool) (bool, error) {
	if r == nil || r.engine == nil {
		return false, nil
	}
	if err := r.engine.RecordResponse(ctx, remind); err != nil {
		return true, err
	}
	return true, nil
}

// Prompt presents a rating prompt regardless of the due-checks.
// Returns false when the presenter or listener is missing.
func (e *Engine) Prompt(ctx context.Context, presenter Presenter, listener Listener) (bool, error) {
	if presenter == nil || listener == nil {
		return false, nil
	}
	if err := presenter.Present(ctx, NewResponder(e, listener)); err != nil {
		return false, err
	}
	return true, nil
}

// PromptIfDue presents a rating prompt only when ShouldPrompt holds.
func (e *Engine) PromptIfDue(ctx context.Context, presenter Presenter, listener Listener) (bool, error) {
	if presenter == nil || listener == nil {
		return false, nil
	}

	due, err := e.ShouldPrompt(ctx)
	if err != nil || !due {
		return false, err
	}
	return e.Prompt(ctx, presenter, listener)
}
