// Package dashboard serves the survey form and the live results page
package dashboard

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"likert/internal/adapters/tabular"
	"likert/internal/core/schema"
	"likert/internal/modkit/httpkit"
	perr "likert/internal/platform/errors"
	"likert/internal/platform/logger"
	"likert/internal/services/responses/domain"
	"likert/internal/services/responses/service"
)

//go:embed page.html
var pageHTML string

var page = template.Must(template.New("page").Parse(pageHTML))

// Banners shown when a valid response could not be stored
const (
	SubmitFailed       = "Your response could not be saved right now. Nothing was recorded, please try again."
	StoreMisconfigured = "Responses cannot be saved because the survey store is misconfigured. Nothing was recorded; please let the survey owner know."
)

// Options tunes the page
type Options struct {
	// ContactURL is linked from the thank you banner when set
	ContactURL string
}

// Register mounts GET / and POST / on r
func Register(r httpkit.Router, svc domain.ServicePort, o Options) {
	h := &handler{svc: svc, opts: o}
	r.Get("/", h.show)
	r.Post("/", h.submit)
}

type handler struct {
	svc  domain.ServicePort
	opts Options
}

type scalePoint struct {
	Value int
	Label string
}

type question struct {
	ID       string
	Text     string
	Optional bool
	Selected int
	Error    string
}

type field struct {
	ID      string
	Label   string
	Kind    string
	Options []string
	Value   string
	Error   string
}

// Has reports whether a multi field value includes opt
func (f field) Has(opt string) bool {
	return slices.Contains(strings.Split(f.Value, schema.MultiSep), opt)
}

type tallyRow struct {
	Value string
	Count int
}

type category struct {
	Label string
	Rows  []tallyRow
}

type chart struct {
	Title  string     `json:"title"`
	Labels []string   `json:"labels"`
	Means  []*float64 `json:"means"`
	Min    int        `json:"min"`
	Max    int        `json:"max"`
}

type view struct {
	Title      string
	Scale      []scalePoint
	Questions  []question
	Fields     []field
	Success    bool
	FollowUp   bool
	ContactURL string
	Error      string
	Warning    string
	Total      int
	Malformed  int
	Chart      chart
	Categories []category
}

func (h *handler) show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.form(nil, nil))
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		v := h.form(nil, nil)
		v.Error = "The form could not be read, please try again."
		h.render(w, r, http.StatusBadRequest, v)
		return
	}

	s := h.svc.Schema()
	in := domain.SubmitInput{Answers: map[string]any{}, Meta: map[string]string{}}
	for _, q := range s.Questions {
		if raw := strings.TrimSpace(r.PostForm.Get(q.ID)); raw != "" {
			in.Answers[q.ID] = raw
		}
	}
	for _, f := range s.Fields {
		if f.Kind == schema.KindMulti {
			in.Meta[f.ID] = strings.Join(r.PostForm[f.ID], MultiSepInput)
			continue
		}
		in.Meta[f.ID] = r.PostForm.Get(f.ID)
	}

	_, err := h.svc.Submit(r.Context(), in)
	switch {
	case err == nil:
		v := h.form(nil, nil)
		v.Success = true
		v.FollowUp = optimistic(s, in)
		h.render(w, r, http.StatusOK, v)
	case service.IsValidation(err):
		h.render(w, r, http.StatusBadRequest, h.form(&in, perr.DetailsOf(err)))
	default:
		logger.C(r.Context()).Error().Err(err).Str("op", perr.OpOf(err)).Msg("dashboard submit failed")
		v := h.form(&in, nil)
		v.Error = SubmitFailed
		status := http.StatusInternalServerError
		switch {
		case tabular.IsSchemaMismatch(err):
			v.Error = StoreMisconfigured
		case tabular.IsUnavailable(err), tabular.IsConflict(err):
			status = http.StatusServiceUnavailable
		}
		h.render(w, r, status, v)
	}
}

// MultiSepInput joins checkbox values before they reach the schema
const MultiSepInput = ","

// optimistic is true when any answer sits in the top two scale points
func optimistic(s *schema.Schema, in domain.SubmitInput) bool {
	for _, v := range in.Answers {
		raw, _ := v.(string)
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && n >= s.Scale.Max-1 {
			return true
		}
	}
	return false
}

// form builds the page; in and problems refill a rejected submission
func (h *handler) form(in *domain.SubmitInput, problems []perr.Detail) view {
	s := h.svc.Schema()
	errs := make(map[string]string, len(problems))
	for _, p := range problems {
		if _, seen := errs[p.Field]; !seen {
			errs[p.Field] = p.Message
		}
	}

	v := view{Title: s.Title, ContactURL: h.opts.ContactURL}
	for i, p := range s.Scale.Points() {
		label := strconv.Itoa(p)
		if i < len(s.Scale.Labels) {
			label = s.Scale.Labels[i]
		}
		v.Scale = append(v.Scale, scalePoint{Value: p, Label: label})
	}
	for _, q := range s.Questions {
		qv := question{ID: q.ID, Text: q.Text, Optional: q.Optional, Error: errs[q.ID]}
		if in != nil {
			if raw, ok := in.Answers[q.ID].(string); ok {
				qv.Selected, _ = strconv.Atoi(raw)
			}
		}
		v.Questions = append(v.Questions, qv)
	}
	for _, f := range s.Fields {
		fv := field{ID: f.ID, Label: f.Label, Kind: string(f.Kind), Options: f.Options, Error: errs[f.ID]}
		if in != nil {
			fv.Value = in.Meta[f.ID]
			if f.Kind == schema.KindMulti {
				fv.Value = strings.ReplaceAll(fv.Value, MultiSepInput, schema.MultiSep)
			}
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, v view) {
	st := h.svc.Stats(r.Context())
	s := h.svc.Schema()

	v.Warning = st.Warning
	v.Total = st.Total
	v.Malformed = st.MalformedCount
	v.Chart = chart{Title: "Average Score", Min: s.Scale.Min, Max: s.Scale.Max}
	for _, q := range s.Questions {
		v.Chart.Labels = append(v.Chart.Labels, q.Label)
		v.Chart.Means = append(v.Chart.Means, st.PerQuestion[q.ID])
	}
	for _, f := range s.CategoryFields() {
		t := st.PerCategory[f.ID]
		if t == nil || t.Len() == 0 {
			continue
		}
		c := category{Label: f.Label}
		for _, k := range t.Keys() {
			c.Rows = append(c.Rows, tallyRow{Value: k, Count: t.Count(k)})
		}
		v.Categories = append(v.Categories, c)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, v); err != nil {
		logger.C(r.Context()).Error().Err(err).Msg("dashboard render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
