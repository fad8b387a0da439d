package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/typeboard/typeboard/internal/catalog"
	"github.com/typeboard/typeboard/internal/dashboard"
	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/export"
	"github.com/typeboard/typeboard/internal/incident"
	"github.com/typeboard/typeboard/internal/locale"
	"github.com/typeboard/typeboard/internal/page"
	"github.com/typeboard/typeboard/internal/query"
	"github.com/typeboard/typeboard/internal/repository"
	"github.com/typeboard/typeboard/internal/session"
	"github.com/typeboard/typeboard/internal/throttle"
	"github.com/typeboard/typeboard/internal/worker"
)

var errUnavailable = errors.New("backing store not configured")

// Deps are the components the handlers serve from. Repo, Cache, Bus,
// Sessions and Exports may be nil; the routes that need them answer 503.
type Deps struct {
	Repo      domain.Repository
	Cache     domain.Cache
	Bus       domain.EventBus
	Registry  *catalog.Registry
	Incidents *incident.Store
	Seed      uint64
	Compiler  *query.Compiler
	Sessions  *session.Store
	Exports   *throttle.Limiter
	Locales   *locale.Bundle
	Origin    string
	Version   string
}

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	registry  *catalog.Registry
	incidents *incident.Store
	seed      uint64
	compiler  *query.Compiler
	sessions  *session.Store
	exports   *throttle.Limiter
	locales   *locale.Bundle
	origin    string
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		repo:      deps.Repo,
		cache:     deps.Cache,
		bus:       deps.Bus,
		registry:  deps.Registry,
		incidents: deps.Incidents,
		seed:      deps.Seed,
		compiler:  deps.Compiler,
		sessions:  deps.Sessions,
		exports:   deps.Exports,
		locales:   deps.Locales,
		origin:    deps.Origin,
		version:   deps.Version,
	}
	if h.locales == nil {
		h.locales = locale.Default()
	}
	if h.incidents == nil {
		h.incidents = incident.NewStore()
	}
	return h
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready reports whether every configured backend answers.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{}
	ready := true

	probe := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			return
		}
		checks[name] = "ok"
	}
	if h.repo != nil {
		probe("repository", h.repo.Ping)
	}
	if h.cache != nil {
		probe("cache", h.cache.Ping)
	}
	if h.bus != nil {
		probe("bus", h.bus.Ping)
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ready":  ready,
		"checks": checks,
	})
}

// ListCategories returns the sixteen keys in display order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": domain.Categories(),
		"default":    domain.DefaultCategory(),
	})
}

// ============================================================================
// LOOKUP PAGES
// ============================================================================

// ListPages returns every lookup page.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages := page.List(h.registry.Current())
	writeJSON(w, http.StatusOK, map[string]any{
		"pages": pages,
		"count": len(pages),
	})
}

// GetPage renders a page for the session's current selection.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	_, st := h.loadSession(r)
	pageID := chi.URLParam(r, "page")

	view, err := page.RenderSelection(h.registry.Current(), pageID, st.Selection(pageID))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SelectionRequest is the request body for PUT /pages/{page}/selection.
type SelectionRequest struct {
	Category string `json:"category"`
}

// SelectPage changes the session's selection for a page and renders it.
func (h *Handler) SelectPage(w http.ResponseWriter, r *http.Request) {
	id, st := h.loadSession(r)
	pageID := chi.URLParam(r, "page")
	c := h.registry.Current()

	if _, ok := c.Table(pageID); !ok {
		writeErr(w, page.ErrUnknownPage)
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	// a rejected key keeps the previous selection
	if _, err := st.Select(pageID, req.Category); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.saveSession(r, id, st); err != nil {
		writeErr(w, err)
		return
	}

	view, err := page.RenderSelection(c, pageID, st.Selection(pageID))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RenderPage renders a page for the key in the path without touching the session.
func (h *Handler) RenderPage(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeErr(w, err)
		return
	}

	view, err := page.Render(h.registry.Current(), chi.URLParam(r, "page"), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetRanking returns a leaderboard with items sorted by total.
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rk, ok := h.registry.Current().Ranking(id)
	if !ok {
		writeError(w, http.StatusNotFound, "ranking not found")
		return
	}

	out := *rk
	out.Items = rk.Sorted()
	writeJSON(w, http.StatusOK, out)
}

// ============================================================================
// DASHBOARD
// ============================================================================

// GetDashboard renders every aggregate for the session's filters.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	_, st := h.loadSession(r)
	loc := GetLocale(r.Context())

	ds, sel, pred, err := h.view(r.Context(), st, loc)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Build(ds, sel, pred, loc))
}

// GetOptions returns the filter domains and their defaults.
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	loc := GetLocale(r.Context())
	ds, err := h.incidents.Get(r.Context(), h.seed)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.BuildOptions(ds, loc))
}

// SetFilters stores the session's filter selection. An empty body resets
// the filters to their defaults.
func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	id, st := h.loadSession(r)
	loc := GetLocale(r.Context())

	var sel domain.FilterSelection
	err := json.NewDecoder(r.Body).Decode(&sel)
	switch {
	case errors.Is(err, io.EOF):
		st.Filters = nil
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	default:
		norm := dashboard.Normalize(sel, loc)
		st.Filters = &norm
	}

	st.Locale = loc.Code()
	if err := h.saveSession(r, id, st); err != nil {
		writeErr(w, err)
		return
	}

	ds, err := h.incidents.Get(r.Context(), h.seed)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selection": h.selection(ds, st, loc),
		"reset":     st.Filters == nil,
	})
}

// QueryRequest is the request body for POST /dashboard/query.
type QueryRequest struct {
	Expr string `json:"expr"`
}

// Query applies a CEL predicate on top of the session's filters and renders
// the dashboard. The expression is kept for later dashboard, trend and export
// requests; an empty expression clears it.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	id, st := h.loadSession(r)
	loc := GetLocale(r.Context())

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if h.compiler == nil {
		writeError(w, http.StatusServiceUnavailable, "query engine not configured")
		return
	}
	if req.Expr != "" {
		if _, err := h.compiler.Compile(req.Expr); err != nil {
			writeErr(w, err)
			return
		}
	}

	st.Query = req.Expr
	if err := h.saveSession(r, id, st); err != nil {
		writeErr(w, err)
		return
	}

	ds, sel, pred, err := h.view(r.Context(), st, loc)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Build(ds, sel, pred, loc))
}

// GetTrend returns only the trend block of the dashboard.
func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	_, st := h.loadSession(r)
	loc := GetLocale(r.Context())

	ds, sel, pred, err := h.view(r.Context(), st, loc)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Trend(dashboard.Filter(ds, sel, pred), loc))
}

// Export streams the filtered view as CSV.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, st := h.loadSession(r)
	loc := GetLocale(r.Context())

	if h.exports != nil {
		d, err := h.exports.Allow(r.Context(), id)
		if err != nil {
			slog.Error("export throttle failed", "session_id", id, "error", err)
			writeError(w, http.StatusServiceUnavailable, "export throttle unavailable")
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining(), 10))
		if !d.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(d.Window/time.Second)))
			writeError(w, http.StatusTooManyRequests, "export limit reached, try again later")
			return
		}
	}

	ds, sel, pred, err := h.view(r.Context(), st, loc)
	if err != nil {
		writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	n, err := export.WriteCSV(w, dashboard.Filter(ds, sel, pred), loc)
	if err != nil {
		// headers are gone; all that is left is to log
		slog.Error("csv export failed", "session_id", id, "rows", n, "error", err)
		return
	}
	slog.Debug("csv exported", "session_id", id, "rows", n)
}

// ============================================================================
// CATALOG MANAGEMENT
// ============================================================================

// GetTable returns the live entries of one table.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	t, ok := h.registry.Current().Table(chi.URLParam(r, "table"))
	if !ok {
		writeErr(w, catalog.ErrUnknownTable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       t.ID,
		"title":    t.Title,
		"kind":     t.Kind,
		"coverage": t.Coverage(),
		"total":    t.Total(),
		"entries":  t.List(),
	})
}

// PutEntry stores an override, reloads the local catalog and tells the
// other nodes to do the same.
func (h *Handler) PutEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableID := chi.URLParam(r, "table")

	key, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeErr(w, err)
		return
	}

	var e domain.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	entry := &domain.CatalogEntry{Table: tableID, Category: key, Entry: e}
	if err := h.registry.Base().Check(entry); err != nil {
		writeErr(w, err)
		return
	}
	if h.repo == nil {
		writeErr(w, errUnavailable)
		return
	}

	if err := h.repo.SaveCatalogEntry(ctx, entry); err != nil {
		slog.Error("failed to save catalog entry", "table", tableID, "category", key, "error", err)
		writeErr(w, err)
		return
	}
	if !h.applyChange(w, r, domain.CatalogChange{Table: tableID, Category: key}) {
		return
	}

	res, _ := h.registry.Current().Lookup(tableID, key)
	writeJSON(w, http.StatusOK, res)
}

// DeleteEntry removes an override. The embedded entry, if any, becomes live again.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableID := chi.URLParam(r, "table")

	key, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if h.repo == nil {
		writeErr(w, errUnavailable)
		return
	}

	if err := h.repo.DeleteCatalogEntry(ctx, tableID, key); err != nil {
		writeErr(w, err)
		return
	}
	if !h.applyChange(w, r, domain.CatalogChange{Table: tableID, Category: key, Deleted: true}) {
		return
	}

	res, err := h.registry.Current().Lookup(tableID, key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReloadCatalog rebuilds the live catalog from embedded and persisted entries.
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeErr(w, errUnavailable)
		return
	}
	if err := h.registry.Reload(r.Context(), h.repo); err != nil {
		slog.Error("catalog reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog reload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "catalog reloaded successfully",
		"version": h.registry.Version(),
		"pages":   page.List(h.registry.Current()),
	})
}

func (h *Handler) applyChange(w http.ResponseWriter, r *http.Request, change domain.CatalogChange) bool {
	ctx := r.Context()
	if err := h.registry.Reload(ctx, h.repo); err != nil {
		slog.Error("catalog reload failed", "table", change.Table, "category", change.Category, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog reload failed")
		return false
	}

	if h.bus != nil {
		change.Origin = h.origin
		if err := worker.Announce(ctx, h.bus, change); err != nil {
			slog.Error("failed to announce catalog change", "table", change.Table, "category", change.Category, "error", err)
		}
	}
	return true
}

// ============================================================================
// HELPERS
// ============================================================================

func (h *Handler) loadSession(r *http.Request) (string, *session.State) {
	id := GetSessionID(r.Context())
	if h.sessions == nil || id == "" {
		return id, &session.State{}
	}

	st, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		slog.Warn("failed to load session", "session_id", id, "error", err)
		return id, &session.State{}
	}
	return id, st
}

func (h *Handler) saveSession(r *http.Request, id string, st *session.State) error {
	if h.sessions == nil {
		return errUnavailable
	}
	return h.sessions.Save(r.Context(), id, st)
}

func (h *Handler) selection(ds *incident.Dataset, st *session.State, loc *locale.Locale) domain.FilterSelection {
	if st.Filters != nil {
		return *st.Filters
	}
	return dashboard.DefaultSelection(ds, loc)
}

// view resolves the dataset, filters and optional predicate for a session.
func (h *Handler) view(ctx context.Context, st *session.State, loc *locale.Locale) (*incident.Dataset, domain.FilterSelection, dashboard.Predicate, error) {
	ds, err := h.incidents.Get(ctx, h.seed)
	if err != nil {
		return nil, domain.FilterSelection{}, nil, err
	}
	sel := h.selection(ds, st, loc)

	if st.Query == "" || h.compiler == nil {
		return ds, sel, nil, nil
	}
	p, err := h.compiler.Compile(st.Query)
	if err != nil {
		return nil, sel, nil, err
	}
	return ds, sel, p, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, page.ErrUnknownPage),
		errors.Is(err, catalog.ErrUnknownTable),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, query.ErrInvalidExpression),
		errors.Is(err, catalog.ErrInvalidEntry),
		errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
