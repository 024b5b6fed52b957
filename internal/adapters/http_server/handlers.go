package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"mytravel_leads/internal/adapters/observability"
	"mytravel_leads/internal/app"
	"mytravel_leads/internal/contact"
	"mytravel_leads/internal/domain"
	"mytravel_leads/internal/export"
)

type Handlers struct {
	Q        *app.QueryService
	Ingest   *app.IngestionService
	Outreach *app.OutreachService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/accommodations", h.listAccommodations)
		r.Get("/accommodations/{id}", h.getAccommodation)
		r.Post("/accommodations/{id}/outreach", h.requestOutreach)
		r.Post("/accommodations/{id}/refresh", h.refreshAccommodation)

		r.Get("/analytics/dashboard", h.dashboard)
		r.Get("/analytics/hot-leads", h.hotLeads)

		r.Get("/export/{format}", h.export)
		r.Post("/scan", h.startScan)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problems; anything unknown is a 500.
func writeError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, app.ErrInvalidArgument):
		writeProblem(w, http.StatusBadRequest, "Invalid parameters", err.Error())
	case errors.Is(err, app.ErrUpstream):
		log.Warn().Err(err).Msg(what + " upstream failure")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "leads backend request failed")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
	default:
		log.Error().Err(err).Msg(what + " failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body, nil
}

// writeCached writes v with a weak ETag, answering 304 when the client
// already holds the same representation.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body, err := calcETagAndBody(v)
	if err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to marshal response")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response could not be encoded")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

// ---- accommodations ----

type accommodationView struct {
	domain.Accommodation
	ContactLinks []contact.Link `json:"contact_links"`
}

func (h *Handlers) listAccommodations(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}
	page, err := h.Q.List(r.Context(), p.filter(), domain.PageQuery{Skip: p.Skip, Limit: p.Limit})
	if err != nil {
		writeError(w, err, "accommodations")
		return
	}
	writeCached(w, r, page)
}

func (h *Handlers) getAccommodation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.Q.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "accommodation")
		return
	}
	writeCached(w, r, accommodationView{Accommodation: a, ContactLinks: contact.Links(a)})
}

func (h *Handlers) requestOutreach(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ch, err := app.ParseChannel(r.URL.Query().Get("channel"))
	if err != nil {
		writeError(w, err, "outreach")
		return
	}
	msg, err := h.Outreach.Request(r.Context(), id, ch)
	if err != nil {
		writeError(w, err, "accommodation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"channel": string(ch), "message": msg})
}

func (h *Handlers) refreshAccommodation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.Ingest.RefreshOne(r.Context(), id)
	if err != nil {
		writeError(w, err, "accommodation")
		return
	}
	writeJSON(w, http.StatusOK, accommodationView{Accommodation: a, ContactLinks: contact.Links(a)})
}

// ---- analytics ----

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Q.Dashboard(r.Context())
	if err != nil {
		writeError(w, err, "dashboard")
		return
	}
	writeCached(w, r, sum)
}

func (h *Handlers) hotLeads(w http.ResponseWriter, r *http.Request) {
	p, err := parseHotLeadParams(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}
	items, err := h.Q.HotLeads(r.Context(), p.Limit)
	if err != nil {
		writeError(w, err, "hot leads")
		return
	}
	writeCached(w, r, map[string]any{"limit": p.Limit, "items": items})
}

// ---- export ----

func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	p, err := parseExportParams(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}
	items, err := h.Q.Filtered(r.Context(), p.filter())
	if err != nil {
		writeError(w, err, "export")
		return
	}

	// render fully before headers so a failure can still become a problem
	var buf bytes.Buffer
	if err := export.Write(&buf, f, items, p.options()); err != nil {
		writeError(w, err, "export")
		return
	}
	observability.ObserveExport(string(f), "http")

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(f, time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Str("format", string(f)).Msg("failed to write export body")
	}
}

// ---- scan ----

func (h *Handlers) startScan(w http.ResponseWriter, r *http.Request) {
	p, err := parseScanParams(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}
	out, err := h.Ingest.StartScan(r.Context(), domain.ScanSource(p.Source), p.Region)
	if err != nil {
		writeError(w, err, "scan")
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}
