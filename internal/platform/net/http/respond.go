// Package http is the transport layer: the router seam, the server and the
// JSON envelope every API response is written in
package http

import (
	"encoding/json"
	"mime"
	stdhttp "net/http"

	perr "likert/internal/platform/errors"
	pnet "likert/internal/platform/net"
)

// Envelope is the standard response body for all JSON endpoints
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Details    []perr.Detail  `json:"details,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Blob is a raw download written without the envelope
type Blob struct {
	ContentType string
	Filename    string // sets Content-Disposition: attachment when non empty
	Data        []byte
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorEnvelope maps err onto status and envelope
func errorEnvelope(err error, reqID string) (int, Envelope) {
	status := perr.HTTPStatus(err)
	wr := perr.WireFrom(err)
	return status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wr.Code,
		Error:      wr.Message,
		Details:    wr.Details,
		RequestID:  reqID,
	}
}

func dataEnvelope(status int, data any, reqID string) Envelope {
	return Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// RespondError writes err as an error envelope, used by middleware that
// rejects before any handler runs
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, env := errorEnvelope(err, pnet.RequestID(r.Context()))
	JSON(w, status, env)
}

// Response is what return-style handlers produce; an error Body selects the
// error envelope and a Blob skips the envelope entirely
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
	Blob   *Blob
}

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	reqID := pnet.RequestID(r.Context())

	// errors derive their own status
	if err, ok := resp.Body.(error); ok && err != nil {
		status, env := errorEnvelope(err, reqID)
		JSON(w, status, env)
		return
	}

	if b := resp.Blob; b != nil {
		ct := b.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		if b.Filename != "" {
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": b.Filename}))
		}
		w.WriteHeader(status)
		_, _ = w.Write(b.Data)
		return
	}

	JSON(w, status, dataEnvelope(status, resp.Body, reqID))
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Created returns a 201 response
func Created(data any) Response { return Response{Status: stdhttp.StatusCreated, Body: data} }

// Error returns a response that maps the error to status and envelope
func Error(err error) Response { return Response{Body: err} }

// File returns a 200 raw download
func File(b Blob) Response { return Response{Status: stdhttp.StatusOK, Blob: &b} }
