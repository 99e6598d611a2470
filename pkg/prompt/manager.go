// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AccelByte/extend-dynamic-rating/pkg/common"
	"github.com/AccelByte/extend-dynamic-rating/pkg/metrics"
	"github.com/AccelByte/extend-dynamic-rating/pkg/policy"
	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/AccelByte/extend-dynamic-rating/pkg/rating"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// ReminderBaseline is the last reminder time assumed for users without one.
	// Zero means the clock reading when the manager is built.
	ReminderBaseline int64

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Manager runs rating engines for many users and policies over one store.
//
// Each user gets its own base key under the policy base key, so all users
// share the rating partition without interfering. Operations on the same
// user and policy are serialized within the process.
type Manager struct {
	prefs    *preferences.Preferences
	policies *policy.Registry
	baseline int64
	clock    func() time.Time
	locks    *keyedMutex
}

// NewManager creates a prompt manager.
func NewManager(prefs *preferences.Preferences, policies *policy.Registry, cfg ManagerConfig) (*Manager, error) {
	if prefs == nil {
		return nil, rating.ErrInitialization
	}
	if policies == nil {
		return nil, fmt.Errorf("policy registry must not be nil")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	baseline := cfg.ReminderBaseline
	if baseline == 0 {
		baseline = clock().UnixMilli()
	}

	return &Manager{
		prefs:    prefs,
		policies: policies,
		baseline: baseline,
		clock:    clock,
		locks:    newKeyedMutex(),
	}, nil
}

// Policies returns the policy registry.
func (m *Manager) Policies() *policy.Registry {
	return m.policies
}

// StartSession records a session for the user and returns the resulting decision.
func (m *Manager) StartSession(ctx context.Context, req Request) (Decision, error) {
	scope := m.startScope(ctx, "prompt.StartSession", req)
	defer scope.Finish()

	p, engine, err := m.engine(req)
	if err != nil {
		scope.TraceError(err)
		return Decision{}, err
	}

	unlock := m.locks.Lock(engine.BaseKey())
	defer unlock()

	if _, err := engine.Initialize(scope.Ctx); err != nil {
		return Decision{}, m.storeError(scope, "start_session", err)
	}
	metrics.SessionsTotal.WithLabelValues(p.ID()).Inc()

	decision, err := m.decide(scope.Ctx, p, engine)
	if err != nil {
		return Decision{}, m.storeError(scope, "start_session", err)
	}
	if decision.ShouldPrompt {
		scope.Event("prompt.due", common.Fields{"launchCount": decision.State.LaunchCount})
	}

	scope.Log.Infof("session recorded for %s under policy %s: launches=%d shouldPrompt=%v",
		req.UserID, p.ID(), decision.State.LaunchCount, decision.ShouldPrompt)
	return decision, nil
}

// Check returns the current decision without recording anything.
func (m *Manager) Check(ctx context.Context, req Request) (Decision, error) {
	scope := m.startScope(ctx, "prompt.Check", req)
	defer scope.Finish()

	p, engine, err := m.engine(req)
	if err != nil {
		scope.TraceError(err)
		return Decision{}, err
	}

	unlock := m.locks.Lock(engine.BaseKey())
	defer unlock()

	decision, err := m.decide(scope.Ctx, p, engine)
	if err != nil {
		return Decision{}, m.storeError(scope, "check", err)
	}
	return decision, nil
}

// RecordResponse stores the user's answer to a prompt.
func (m *Manager) RecordResponse(ctx context.Context, req Request, in ResponseInput) (ResponseResult, error) {
	scope := m.startScope(ctx, "prompt.RecordResponse", req)
	defer scope.Finish()
	scope.With(common.Fields{"responseKind": string(in.Kind)})

	p, engine, err := m.engine(req)
	if err != nil {
		scope.TraceError(err)
		return ResponseResult{}, err
	}

	unlock := m.locks.Lock(engine.BaseKey())
	defer unlock()

	result := ResponseResult{Kind: in.Kind}
	listener := &outcomeListener{}
	responder := rating.NewResponder(engine, listener).WithPositiveThreshold(p.PositiveThreshold())

	switch in.Kind {
	case ResponseRated, ResponseFeedback, ResponseDismiss:
		err = engine.RecordResponse(scope.Ctx, false)
	case ResponseRemind:
		_, err = responder.OnRatingSkipped(scope.Ctx, true)
	case ResponseRating:
		scope.With(common.Fields{"rating": in.Rating})
		var acted bool
		acted, err = responder.OnRatingSelected(scope.Ctx, in.Rating)
		if err == nil && !acted {
			scope.TraceError(ErrUnknownRating)
			return ResponseResult{}, fmt.Errorf("%w: %v", ErrUnknownRating, in.Rating)
		}
		result.Outcome = listener.outcome.String()
	default:
		scope.TraceError(ErrUnknownResponse)
		return ResponseResult{}, fmt.Errorf("%w: %q", ErrUnknownResponse, in.Kind)
	}
	if err != nil {
		return ResponseResult{}, m.storeError(scope, "record_response", err)
	}

	if result.State, err = engine.State(scope.Ctx); err != nil {
		return ResponseResult{}, m.storeError(scope, "record_response", err)
	}

	metrics.ResponsesTotal.WithLabelValues(p.ID(), string(in.Kind)).Inc()
	scope.Log.Infof("response %s recorded for %s under policy %s", in.Kind, req.UserID, p.ID())
	return result, nil
}

// State returns the stored state of the user.
func (m *Manager) State(ctx context.Context, req Request) (rating.State, error) {
	scope := m.startScope(ctx, "prompt.State", req)
	defer scope.Finish()

	_, engine, err := m.engine(req)
	if err != nil {
		scope.TraceError(err)
		return rating.State{}, err
	}

	unlock := m.locks.Lock(engine.BaseKey())
	defer unlock()

	state, err := engine.State(scope.Ctx)
	if err != nil {
		return rating.State{}, m.storeError(scope, "state", err)
	}
	return state, nil
}

// Reset wipes the stored state of the user, making them a first-time user again.
func (m *Manager) Reset(ctx context.Context, req Request) error {
	scope := m.startScope(ctx, "prompt.Reset", req)
	defer scope.Finish()

	p, engine, err := m.engine(req)
	if err != nil {
		scope.TraceError(err)
		return err
	}

	unlock := m.locks.Lock(engine.BaseKey())
	defer unlock()

	if err := engine.Reset(scope.Ctx); err != nil {
		return m.storeError(scope, "reset", err)
	}
	metrics.ResetsTotal.WithLabelValues(p.ID()).Inc()
	return nil
}

// Purge wipes the stored state of every user under every policy.
// Operations running concurrently may write state back after it returns.
func (m *Manager) Purge(ctx context.Context) error {
	scope := common.StartScope(ctx, "prompt.Purge", common.Fields{"partition": rating.Partition})
	defer scope.Finish()

	if err := m.prefs.Clear(scope.Ctx, rating.Partition); err != nil {
		return m.storeError(scope, "purge", err)
	}
	scope.Log.Info("purged all rating state")
	return nil
}

func (m *Manager) engine(req Request) (*policy.Policy, *rating.Engine, error) {
	if req.UserID == "" || req.PolicyID == "" {
		return nil, nil, fmt.Errorf("%w: user and policy are required", ErrInvalidRequest)
	}
	if strings.Contains(req.Namespace, common.UserKeySeparator) || strings.Contains(req.UserID, common.UserKeySeparator) {
		return nil, nil, fmt.Errorf("%w: namespace and user must not contain %q", ErrInvalidRequest, common.UserKeySeparator)
	}

	p := m.policies.Get(req.PolicyID)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, req.PolicyID)
	}

	cfg := p.RatingConfig(common.UserKey(req.Namespace, req.UserID), m.baseline, m.clock)
	engine, err := rating.NewEngine(m.prefs, cfg)
	if err != nil {
		return nil, nil, err
	}
	return p, engine, nil
}

func (m *Manager) decide(ctx context.Context, p *policy.Policy, engine *rating.Engine) (Decision, error) {
	ev, err := engine.Evaluate(ctx)
	if err != nil {
		return Decision{}, err
	}
	state, err := engine.State(ctx)
	if err != nil {
		return Decision{}, err
	}

	metrics.DecisionsTotal.WithLabelValues(p.ID(), strconv.FormatBool(ev.ShouldPrompt)).Inc()
	return newDecision(ev, state), nil
}

func (m *Manager) startScope(ctx context.Context, name string, req Request) *common.Scope {
	return common.StartScope(ctx, name, common.Fields{
		"namespace": req.Namespace,
		"userID":    req.UserID,
		"policyID":  req.PolicyID,
	})
}

func (m *Manager) storeError(scope *common.Scope, operation string, err error) error {
	metrics.StoreErrorsTotal.WithLabelValues(operation).Inc()
	scope.TraceError(err)
	scope.Log.Errorf("%s failed: %v", operation, err)
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// outcomeListener remembers which callback a rating response reached.
type outcomeListener struct {
	outcome rating.Outcome
}

func (l *outcomeListener) OnRate(context.Context, float64) {
	l.outcome = rating.OutcomePositive
}

func (l *outcomeListener) OnFeedback(context.Context, float64) {
	l.outcome = rating.OutcomeNegative
}
