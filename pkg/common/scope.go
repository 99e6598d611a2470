// Copyright (c) 2023 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	traceIdLogField = "traceID"
	tracerName      = "dynamic-rating"
)

// Fields are recorded on both the span and the scope logger.
type Fields map[string]interface{}

// Scope carries the span, context and logger of one rating operation.
type Scope struct {
	Ctx     context.Context
	TraceID string
	Log     *log.Entry

	span oteltrace.Span
}

// StartScope starts a span named name under ctx. Callers must call Finish.
func StartScope(ctx context.Context, name string, fields Fields) *Scope {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, name)
	traceID := span.SpanContext().TraceID().String()

	s := &Scope{
		Ctx:     spanCtx,
		TraceID: traceID,
		Log:     log.WithField(traceIdLogField, traceID),
		span:    span,
	}
	s.With(fields)
	return s
}

// With adds fields to the span and the logger.
func (s *Scope) With(fields Fields) *Scope {
	if len(fields) == 0 {
		return s
	}

	attrs := make([]attribute.KeyValue, 0, len(fields))
	for k, v := range fields {
		if kv, ok := toAttribute(k, v); ok {
			attrs = append(attrs, kv)
		}
	}
	s.span.SetAttributes(attrs...)
	s.Log = s.Log.WithFields(log.Fields(fields))
	return s
}

// Event adds a span event and logs it at debug level.
func (s *Scope) Event(name string, fields Fields) {
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for k, v := range fields {
		if kv, ok := toAttribute(k, v); ok {
			attrs = append(attrs, kv)
		}
	}
	s.span.AddEvent(name, oteltrace.WithAttributes(attrs...))
	s.Log.WithFields(log.Fields(fields)).Debug(name)
}

// TraceError marks the span failed with err.
func (s *Scope) TraceError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Finish ends the span.
func (s *Scope) Finish() {
	s.span.End()
}

func toAttribute(key string, value interface{}) (attribute.KeyValue, bool) {
	switch v := value.(type) {
	case bool:
		return attribute.Bool(key, v), true
	case string:
		return attribute.String(key, v), true
	case int:
		return attribute.Int(key, v), true
	case int64:
		return attribute.Int64(key, v), true
	case float64:
		return attribute.Float64(key, v), true
	case interface{ String() string }:
		return attribute.String(key, v.String()), true
	default:
		return attribute.KeyValue{}, false
	}
}
