// Package httpkit is the routing toolkit modules mount with; it re-exports the
// transport types so module code never imports platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "likert/internal/platform/net/http"
)

type (
	// Envelope is the JSON body every API response is wrapped in
	Envelope = phttp.Envelope

	// Response is returned by handlers to pick status, headers or a raw download
	Response = phttp.Response

	// Blob is a raw download such as the CSV export
	Blob = phttp.Blob

	// Handler is the plain handler shape
	Handler = phttp.Handler

	// Router is the mounting surface
	Router = phttp.Router
)

// OK is a 200 envelope around data
func OK(data any) Response { return phttp.OK(data) }

// Created is a 201 envelope around data
func Created(data any) Response { return phttp.Created(data) }

// File is a 200 raw download
func File(b Blob) Response { return phttp.File(b) }

// JSON binds and validates a T body before calling fn
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler {
	return phttp.Bind(fn)
}

// Call adapts a handler that reads no body
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Call(fn)
}
