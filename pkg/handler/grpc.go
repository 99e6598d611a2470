// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "accelbyte.rating.v1.DynamicRatingService"

// RatingService is the gRPC surface of the rating prompt manager.
// Requests carry "namespace", "user_id" and "policy_id"; RecordResponse
// also takes "kind" and an optional numeric "rating".
type RatingService interface {
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ShouldPrompt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordResponse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Rating serves RatingService from a prompt manager.
type Rating struct {
	manager *prompt.Manager
}

// NewRating creates a gRPC rating service.
func NewRating(manager *prompt.Manager) *Rating {
	return &Rating{manager: manager}
}

var _ RatingService = (*Rating)(nil)

// RegisterRatingService registers svc on server.
func RegisterRatingService(server grpc.ServiceRegistrar, svc RatingService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*RatingService)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "StartSession", Handler: unaryHandler("StartSession", RatingService.StartSession)},
			{MethodName: "ShouldPrompt", Handler: unaryHandler("ShouldPrompt", RatingService.ShouldPrompt)},
			{MethodName: "RecordResponse", Handler: unaryHandler("RecordResponse", RatingService.RecordResponse)},
			{MethodName: "GetState", Handler: unaryHandler("GetState", RatingService.GetState)},
			{MethodName: "ResetState", Handler: unaryHandler("ResetState", RatingService.ResetState)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "accelbyte/rating/v1/dynamic_rating.proto",
	}, svc)
}

func (s *Rating) StartSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := requestFromStruct(req)
	if err != nil {
		return nil, err
	}

	decision, err := s.manager.StartSession(ctx, r)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(decisionMap(decision))
}

func (s *Rating) ShouldPrompt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := requestFromStruct(req)
	if err != nil {
		return nil, err
	}

	decision, err := s.manager.Check(ctx, r)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(decisionMap(decision))
}

func (s *Rating) RecordResponse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := requestFromStruct(req)
	if err != nil {
		return nil, err
	}

	fields := req.GetFields()
	kind := fields["kind"].GetStringValue()
	if kind == "" {
		return nil, status.Error(codes.InvalidArgument, "missing kind")
	}
	in := prompt.ResponseInput{Kind: prompt.ResponseKind(kind)}
	if v, ok := fields["rating"]; ok {
		in.Rating = v.GetNumberValue()
	}

	result, err := s.manager.RecordResponse(ctx, r, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(responseMap(result))
}

func (s *Rating) GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := requestFromStruct(req)
	if err != nil {
		return nil, err
	}

	state, err := s.manager.State(ctx, r)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(stateMap(state))
}

func (s *Rating) ResetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := requestFromStruct(req)
	if err != nil {
		return nil, err
	}

	if err := s.manager.Reset(ctx, r); err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"reset": true})
}

func requestFromStruct(req *structpb.Struct) (prompt.Request, error) {
	fields := req.GetFields()
	r := prompt.Request{
		Namespace: fields["namespace"].GetStringValue(),
		UserID:    fields["user_id"].GetStringValue(),
		PolicyID:  fields["policy_id"].GetStringValue(),
	}
	if r.UserID == "" {
		return prompt.Request{}, status.Error(codes.InvalidArgument, "missing user_id")
	}
	if r.PolicyID == "" {
		return prompt.Request{}, status.Error(codes.InvalidArgument, "missing policy_id")
	}
	return r, nil
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, prompt.ErrInvalidRequest),
		errors.Is(err, prompt.ErrUnknownRating),
		errors.Is(err, prompt.ErrUnknownResponse):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, prompt.ErrPolicyNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		logrus.Errorf("rating request failed: %v", err)
		return status.Error(codes.Internal, "internal error")
	}
}

type unaryMethod func(RatingService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		svc := srv.(RatingService)
		if interceptor == nil {
			return method(svc, ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return method(svc, ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
