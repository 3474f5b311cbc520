/*
handlers.go - HTTP API handlers for the school administration backend

PURPOSE:
  Exposes the school records over REST. Handles HTTP request/response and
  JSON, and delegates invariants to packages fees, timetable and reports.

ENDPOINTS (all under API_V1_STR, default /api/v1):
  Auth:       POST /auth/login
  Users:      /users, /users/me, /users/{id}, /users/{id}/roles, /roles
  Students:   /students, /students/by-grade/{grade}, /students/by-parent/{id}
  Admissions: /admissions, /admissions/by-status/{status}
  Subjects:   /subjects, /subjects/by-teacher/{id}, /subjects/by-grade/{grade}
  Timetables: /timetables, /timetables/slots/...
  Exams:      /exams, /exams/results/...
  Payments:   /payments/fee-structures, /payments/fee-items,
              /payments/fee-records, /payments/payments
  Reports:    /reports, /reports/{id}/run, /reports/due, ...
  Scenarios:  /scenarios, /scenarios/load, /scenarios/reset

ARCHITECTURE:
  Handler holds the dependencies:
  - Store:  database access (domain.Store plus Reset/Ping)
  - Tokens: access token issuer
  - Config: runtime settings

REQUEST FLOW:
  1. Parse path and query parameters
  2. Decode and validate the body (validate.go)
  3. Read-then-write sequences run inside Store.WithTx
  4. Serialize the entity (DELETE returns the deleted row)

ERROR HANDLING:
  fail() maps domain errors onto the response:
  - 400: validation, duplicate keys, slot conflicts, invalid amounts/ranges
  - 401: missing or bad token; 403: not allowed
  - 404: referenced entity not found
  - 500: everything else (logged)

SEE ALSO:
  - dto.go: request/response data structures
  - middleware.go: authentication
  - server.go: router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/schooladmin/auth"
	"github.com/warp/schooladmin/config"
	"github.com/warp/schooladmin/domain"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Database is the store plus the maintenance operations scenarios need.
type Database interface {
	domain.Store
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	EnsureSuperuser(ctx context.Context, email, password string) (*domain.User, bool, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Database
	Tokens *auth.Issuer
	Config *config.Config

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over store.
func NewHandler(store Database, cfg *config.Config) *Handler {
	return &Handler{
		Store:  store,
		Tokens: auth.NewIssuer(cfg.SecretKey, cfg.AccessTokenTTL),
		Config: cfg,
	}
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// GENERIC READ/DELETE
// =============================================================================

func serveGet[T, F any](w http.ResponseWriter, r *http.Request, repo domain.Repository[T, F]) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	v, err := repo.Get(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func serveList[T, F any](w http.ResponseWriter, r *http.Request, repo domain.Repository[T, F], filter F) {
	rows, err := repo.List(r.Context(), filter)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// serveDelete removes the row named by {id} and responds with it.
func serveDelete[T, F any](w http.ResponseWriter, r *http.Request, repo domain.Repository[T, F]) {
	id, err := parseID(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	ctx := r.Context()
	v, err := repo.Get(ctx, id)
	if err != nil {
		fail(w, err)
		return
	}
	if err := repo.Delete(ctx, id); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: codeForStatus(status)}
	if err != nil && err.Error() != message {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusBadRequest:
		return "validation"
	}
	return "internal"
}

// fail writes the response for err according to the domain error taxonomy.
func fail(w http.ResponseWriter, err error) {
	var (
		notFound  *domain.NotFoundError
		slots     *domain.SlotConflictError
		dup       *domain.DuplicateError
		invalid   *domain.InvalidStateError
		validated *domain.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: notFound.Entity + " not found", Code: "not_found", Details: err.Error(),
		})
	case errors.As(err, &slots):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Time slot conflicts with existing slots", Code: "slot_conflict",
			Details: err.Error(), Conflicts: slots.ConflictIDs(),
		})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: dup.Error(), Code: "duplicate"})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: invalid.Error(), Code: "invalid_state"})
	case errors.As(err, &validated):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Validation failed", Code: "validation", Details: err.Error(), Fields: validated.Fields,
		})
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Could not validate credentials", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect email or password", nil)
	default:
		log.Printf("internal error: %+v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func fieldError(field, msg string) error {
	return &domain.ValidationError{Fields: map[string]string{field: msg}}
}

// parseID reads a positive integer path parameter.
func parseID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, fieldError(name, "must be a positive integer")
	}
	return uint(id), nil
}

// parsePage reads skip/limit. limit defaults to 100 and is capped at 1000.
func parsePage(r *http.Request) (domain.Page, error) {
	page := domain.Page{Limit: defaultLimit}
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return page, fieldError("skip", "must be a non-negative integer")
		}
		page.Skip = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLimit {
			return page, fieldError("limit", "must be between 1 and 1000")
		}
		page.Limit = n
	}
	return page, nil
}

func queryString(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// queryBool returns def when the parameter is absent.
func queryBool(r *http.Request, name string, def *bool) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fieldError(name, "must be a boolean")
	}
	return &b, nil
}

func queryUint(r *http.Request, name string) (*uint, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, fieldError(name, "must be a non-negative integer")
	}
	id := uint(n)
	return &id, nil
}

// queryEnum reads an enum parameter, rejecting unknown values.
func queryEnum[E interface {
	~string
	Valid() bool
}](r *http.Request, name string) (*E, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	e := E(v)
	if !e.Valid() {
		return nil, fieldError(name, "unsupported value "+strconv.Quote(v))
	}
	return &e, nil
}

// pathEnum is queryEnum for a path segment.
func pathEnum[E interface {
	~string
	Valid() bool
}](r *http.Request, name string) (E, error) {
	e := E(chi.URLParam(r, name))
	if !e.Valid() {
		return e, fieldError(name, "unsupported value "+strconv.Quote(string(e)))
	}
	return e, nil
}

// activeOnly is the is_active default for list endpoints that filter on it.
var activeOnly = domain.Ptr(true)
