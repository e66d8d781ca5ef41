package http

import (
	"net/http"

	"likert/internal/platform/net/http/bind"
)

// Bind parses and validates a T body before calling fn; see Call for the result rules
func Bind[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		return result(fn(r, in))
	})
}

// Call runs fn without reading the body. An error becomes the error envelope,
// a Response is written as returned and anything else is a 200 envelope
func Call(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return result(fn(r)) })
}

func result(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return OK(out)
}
