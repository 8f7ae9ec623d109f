package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/auth"
	"github.com/wellywell/laundry/internal/db"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

var (
	ErrCouldNotParseBody = errors.New("could not parse body")
	ErrAuthDataEmpty     = errors.New("username or password cannot be empty")
	ErrBadPagination     = errors.New("page and per_page must be positive integers")
)

// Orders is the order lifecycle used by the laundry endpoints.
type Orders interface {
	Create(ctx context.Context, in types.NewOrder, actorID int) (*types.Order, error)
	Update(ctx context.Context, id int, p types.OrderPatch, actorID int) (*types.Order, error)
	ChangeStatus(ctx context.Context, id int, status types.Status, actorID int) (*types.Order, error)
	Delete(ctx context.Context, id int) error
	Reorder(ctx context.Context, ids []int, actorID int) (*queue.ReorderResult, error)

	CreateStep(ctx context.Context, in types.NewProcessingStep, actorID int) (*types.ProcessingStep, error)
	UpdateStep(ctx context.Context, id int, p types.ProcessingStepPatch) (*types.ProcessingStep, error)
	CompleteStep(ctx context.Context, id int, actorID int) (*types.ProcessingStep, error)
	DeleteStep(ctx context.Context, id int) error
}

type Views interface {
	Build(ctx context.Context, f queue.StatusFilter) (*queue.View, error)
}

type TokenSettings struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type HandlerSet struct {
	tokens   TokenSettings
	database *db.Database
	orders   Orders
	views    Views
}

func NewHandlerSet(tokens TokenSettings, database *db.Database, orders Orders, views Views) *HandlerSet {
	return &HandlerSet{
		tokens:   tokens,
		database: database,
		orders:   orders,
		views:    views,
	}
}

func decodeBody(req *http.Request, dst any) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return ErrCouldNotParseBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	response, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Could not serialize result",
			http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(response)
	if err != nil {
		logger.Errorf("Failed writing response: %s", err.Error())
	}
}

func writeErrorBody(w http.ResponseWriter, status int, body queue.ErrorBody) {
	writeJSON(w, status, body)
}

// handleError maps store and service errors onto HTTP statuses. Queue
// errors keep their machine-readable body.
func handleError(w http.ResponseWriter, err error) {
	var coded queue.CodedError
	if errors.As(err, &coded) {
		writeErrorBody(w, coded.HTTPStatus(), coded.Body())
		return
	}

	var notFound *db.NotFoundError
	var userExists *db.UserExistsError
	var roleExists *db.RoleExistsError
	var categoryExists *db.CategoryExistsError
	var reference *db.ReferenceError

	switch {
	case errors.Is(err, ErrCouldNotParseBody):
		http.Error(w, "Could not parse body", http.StatusBadRequest)
	case errors.Is(err, ErrBadPagination):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &notFound):
		http.Error(w, notFound.Error(), http.StatusNotFound)
	case errors.As(err, &userExists):
		http.Error(w, "User exists", http.StatusConflict)
	case errors.As(err, &roleExists):
		http.Error(w, "Role exists", http.StatusConflict)
	case errors.As(err, &categoryExists):
		http.Error(w, categoryExists.Error(), http.StatusConflict)
	case errors.As(err, &reference):
		http.Error(w, reference.Error(), http.StatusBadRequest)
	case errors.Is(err, db.ErrSessionAlreadyOpen):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, db.ErrNoOpenSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, db.ErrNotNoteOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, db.ErrTokenRevoked):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		logger.Error(err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func pathID(req *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(req, name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(req *http.Request, name string, fallback int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrBadPagination
	}
	return n, nil
}

// pagination reads page and per_page, capping per_page.
func pagination(req *http.Request) (page int, perPage int, err error) {
	page, err = queryInt(req, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	perPage, err = queryInt(req, "per_page", defaultPerPage)
	if err != nil {
		return 0, 0, err
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, nil
}

func (h *HandlerSet) handleAuthorizeUser(w http.ResponseWriter, req *http.Request) (int, bool) {
	userID, ok := auth.GetAuthenticatedUser(req.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func (h *HandlerSet) HandleHealth(w http.ResponseWriter, req *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.database != nil {
		if err := h.database.Ping(req.Context()); err != nil {
			logger.Errorf("Health check failed: %s", err.Error())
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}
