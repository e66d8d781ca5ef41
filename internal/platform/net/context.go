// Package net keeps the per request values every layer reads: the request id chi
// assigns and the operator an admin token resolved to
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type actorKey struct{}

// WithRequest stores reqID under chi's RequestIDKey, so code outside the chi stack
// and the RequestID middleware agree on where it lives
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// RequestID returns the request id on ctx, empty when none was assigned
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithActor records the operator behind an authenticated admin request
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the operator recorded by WithActor
func Actor(ctx context.Context) string {
	a, _ := ctx.Value(actorKey{}).(string)
	return a
}
