// Package http provides http transport for survey responses
package http

import (
	stdhttp "net/http"

	"likert/internal/modkit/httpkit"
	"likert/internal/platform/logger"
	pnet "likert/internal/platform/net"
	"likert/internal/platform/net/middleware"
	"likert/internal/services/responses/domain"
)

// Register mounts survey endpoints on the given router. admin guards the repair route;
// a nil admin port leaves repair unmounted
func Register(r httpkit.Router, s domain.ServicePort, admin middleware.AuthPort) {
	h := &handlers{svc: s}

	// active schema revision, used by forms and clients
	httpkit.Get(r, "/schema", h.schema)

	// submit and list
	httpkit.PostJSON[domain.SubmitInput](r, "/responses", h.submit)
	httpkit.Get(r, "/responses", h.list)

	// aggregate snapshot
	httpkit.Get(r, "/stats", h.stats)

	// csv download
	httpkit.Get(r, "/export", h.export)

	if admin != nil {
		httpkit.Protected(r, admin, func(pr httpkit.Router) {
			httpkit.Post(pr, "/admin/repair", h.repair)
		})
	}
}

type handlers struct{ svc domain.ServicePort }

// swagger:route GET /survey/schema Survey surveySchema
// @Summary Active survey schema
// @Tags Survey
// @Produce json
// @Success 200 {object} schema.Schema "ok"
// @Router /survey/schema [get]
func (h *handlers) schema(*stdhttp.Request) (any, error) {
	return h.svc.Schema(), nil
}

// swagger:route POST /survey/responses Survey surveySubmit
// @Summary Submit a response
// @Tags Survey
// @Accept json
// @Produce json
// @Param payload body domain.SubmitInput true "Answers and metadata"
// @Success 201 {object} domain.Ack "stored"
// @Failure 400 {object} httpkit.Envelope "validation failed, details name every field"
// @Failure 503 {object} httpkit.Envelope "store unavailable"
// @Router /survey/responses [post]
func (h *handlers) submit(r *stdhttp.Request, in domain.SubmitInput) (any, error) {
	ack, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(ack), nil
}

// swagger:route GET /survey/responses Survey surveyList
// @Summary Every readable response, oldest first
// @Tags Survey
// @Produce json
// @Success 200 {object} domain.Listing "ok"
// @Failure 503 {object} httpkit.Envelope "store unavailable"
// @Router /survey/responses [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.svc.List(r.Context())
}

// swagger:route GET /survey/stats Survey surveyStats
// @Summary Aggregate statistics
// @Description Always 200; a store failure yields an empty snapshot with a warning
// @Tags Survey
// @Produce json
// @Success 200 {object} domain.Stats "ok"
// @Router /survey/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	return h.svc.Stats(r.Context()), nil
}

// swagger:route GET /survey/export Survey surveyExport
// @Summary Download responses as CSV
// @Tags Survey
// @Produce text/csv
// @Success 200 {file} file "csv"
// @Failure 503 {object} httpkit.Envelope "store unavailable"
// @Router /survey/export [get]
func (h *handlers) export(r *stdhttp.Request) (any, error) {
	dl, err := h.svc.Export(r.Context())
	if err != nil {
		return nil, err
	}
	return httpkit.File(httpkit.Blob{ContentType: dl.ContentType, Filename: dl.Filename, Data: dl.Data}), nil
}

// swagger:route POST /survey/admin/repair Survey surveyRepair
// @Summary Rewrite the store under canonical column names
// @Tags Survey
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.RepairReport "ok"
// @Failure 401 {object} httpkit.Envelope "missing or bad token"
// @Router /survey/admin/repair [post]
func (h *handlers) repair(r *stdhttp.Request) (any, error) {
	ctx := r.Context()
	rep, err := h.svc.Repair(ctx)
	if err != nil {
		return nil, err
	}
	logger.C(ctx).Info().Str("actor", pnet.Actor(ctx)).Int("rows", rep.Rows).Msg("store repaired")
	return rep, nil
}
