package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"

	perr "likert/internal/platform/errors"
)

//go:embed openapi.json
var openapiJSON string

// docReader is a seam so tests can serve a broken document
var docReader = func() string { return openapiJSON }

// SpecMutator edits the parsed document before it is served
type SpecMutator func(spec map[string]any)

// InfoVersion stamps info.version, normally with the build version
func InfoVersion(v string) SpecMutator {
	return func(spec map[string]any) {
		if v != "" {
			obj(spec, "info")["version"] = v
		}
	}
}

// builtins run before caller mutators: base url, the envelope schema and the
// error responses every operation can return
var builtins = []SpecMutator{
	func(spec map[string]any) {
		if _, ok := spec["servers"]; !ok {
			spec["servers"] = []any{map[string]any{"url": "/api/v1"}}
		}
	},
	errorSchema,
	errorResponse(http.StatusBadRequest, map[string]any{
		"code":    perr.ErrorCodeValidation,
		"error":   "invalid response",
		"details": []any{map[string]any{"field": "q1", "message": "q1 is a required field"}},
	}),
	errorResponse(http.StatusInternalServerError, map[string]any{
		"code":  perr.ErrorCodePanic,
		"error": "internal error",
	}),
}

// serveDocJSON parses the embedded document per request so mutators never share state
func serveDocJSON(mutators []SpecMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}
		for _, m := range append(builtins[:len(builtins):len(builtins)], mutators...) {
			if m != nil {
				m(spec)
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// obj returns m[key] as an object, creating it when absent
func obj(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	v := map[string]any{}
	m[key] = v
	return v
}

func prop(typ string) map[string]any { return map[string]any{"type": typ} }

// errorSchema mirrors the runtime error envelope
func errorSchema(spec map[string]any) {
	schemas := obj(obj(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Error envelope",
		"required":    []any{"status_code", "status"},
		"properties": map[string]any{
			"status_code": prop("integer"),
			"status":      prop("string"),
			"code":        prop("integer"),
			"error":       prop("string"),
			"request_id":  prop("string"),
			"details": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": map[string]any{"field": prop("string"), "message": prop("string")},
				},
			},
		},
	}
}

// errorResponse adds status to every operation that does not document it
func errorResponse(status int, example map[string]any) SpecMutator {
	text := http.StatusText(status)
	example["status_code"] = status
	example["status"] = text
	resp := map[string]any{
		"description": text,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": example,
			},
		},
	}
	key := strconv.Itoa(status)
	return func(spec map[string]any) {
		paths, _ := spec["paths"].(map[string]any)
		for _, p := range paths {
			ops, _ := p.(map[string]any)
			for _, op := range ops {
				o, ok := op.(map[string]any)
				if !ok {
					continue
				}
				if rs := obj(o, "responses"); rs[key] == nil {
					rs[key] = resp
				}
			}
		}
	}
}
