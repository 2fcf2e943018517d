package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opscheduler/shiftcheck/internal/config"
	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
	"github.com/opscheduler/shiftcheck/pkg/core/services"
	"github.com/opscheduler/shiftcheck/pkg/db"
)

const dateLayout = "2006-01-02"

// Handler holds all dependencies for HTTP handlers
type Handler struct {
	Store    db.Database
	Cfg      *config.Config
	Logger   *zap.Logger
	validate *validator.Validate
}

// NewHandler creates a new handler backed by the given store
func NewHandler(store db.Database, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    store,
		Cfg:      cfg,
		Logger:   logger,
		validate: validator.New(),
	}
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// CreateEvent validates a shift and stores it as a draft when accepted
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if !h.decode(w, r, &req) {
		return
	}

	verdict, err := services.CreateShift(r.Context(), h.Store, h.Cfg, h.Logger, req.toShift())
	if err != nil {
		h.writeServiceError(w, "Failed to create event", err)
		return
	}
	writeVerdict(w, http.StatusCreated, verdict)
}

// ValidateEvent reports whether a shift would be accepted without storing it
func (h *Handler) ValidateEvent(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if !h.decode(w, r, &req) {
		return
	}

	verdict, err := services.ValidateCandidate(r.Context(), h.Store, h.Cfg, h.Logger, req.toShift(), nil)
	if err != nil {
		h.writeServiceError(w, "Failed to validate event", err)
		return
	}
	writeJSON(w, http.StatusOK, toVerdictDTO(verdict))
}

// CreateEventRange creates one shift per day over a date range, stopping at the first rejection
func (h *Handler) CreateEventRange(w http.ResponseWriter, r *http.Request) {
	var req RangeRequest
	if !h.decode(w, r, &req) {
		return
	}

	loc := h.Cfg.Location()
	start, _ := time.ParseInLocation(dateLayout, req.StartDate, loc)
	end, _ := time.ParseInLocation(dateLayout, req.EndDate, loc)

	result, err := services.CreateShiftRange(r.Context(), h.Store, h.Cfg, h.Logger, services.RangeRequest{
		OperatorID: req.OperatorID,
		StartDate:  start,
		EndDate:    end,
		Kind:       model.ShiftKind(req.Shift),
		Job:        req.Job,
		Title:      req.Title,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to create event range", err)
		return
	}
	writeRangeResult(w, result)
}

// CreateSplitEvent takes part of a shift slot off and assigns the remaining hours
func (h *Handler) CreateSplitEvent(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, _ := time.ParseInLocation(dateLayout, req.Date, h.Cfg.Location())
	result, err := services.CreateSplitShift(r.Context(), h.Store, h.Cfg, h.Logger, services.SplitRequest{
		OperatorID:   req.OperatorID,
		Date:         date,
		Kind:         model.ShiftKind(req.Shift),
		HoursOff:     req.HoursOff,
		Part:         services.SplitPart(req.Part),
		RemainingJob: req.RemainingJob,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to create split event", err)
		return
	}
	writeRangeResult(w, result)
}

// CreatePartialEvent creates a mandate or overtime shift
func (h *Handler) CreatePartialEvent(w http.ResponseWriter, r *http.Request) {
	var req PartialRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, _ := time.ParseInLocation(dateLayout, req.Date, h.Cfg.Location())
	verdict, err := services.CreatePartialShift(r.Context(), h.Store, h.Cfg, h.Logger, services.PartialRequest{
		OperatorID: req.OperatorID,
		Date:       date,
		Kind:       model.ShiftKind(req.Shift),
		Hours:      req.Hours,
		Part:       services.SplitPart(req.Part),
		Type:       services.ExtraType(req.Type),
		Job:        req.Job,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to create partial event", err)
		return
	}
	writeVerdict(w, http.StatusCreated, verdict)
}

// UpdateEvent re-validates an edited shift and saves it when accepted
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if !h.decode(w, r, &req) {
		return
	}

	shift := req.toShift()
	shift.ID = chi.URLParam(r, "id")

	verdict, err := services.UpdateShift(r.Context(), h.Store, h.Cfg, h.Logger, shift)
	if err != nil {
		h.writeServiceError(w, "Failed to update event", err)
		return
	}
	writeVerdict(w, http.StatusOK, verdict)
}

// PublishEvent publishes a single draft
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetShift(r.Context(), id); err != nil {
		h.writeServiceError(w, "Failed to publish event", err)
		return
	}

	n, err := services.PublishShifts(r.Context(), h.Store, h.Logger, []string{id})
	if err != nil {
		h.writeServiceError(w, "Failed to publish event", err)
		return
	}
	writeJSON(w, http.StatusOK, PublishResponse{Published: n})
}

// PublishEvents publishes drafts by id. Unknown or already published ids are ignored.
func (h *Handler) PublishEvents(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !h.decode(w, r, &req) {
		return
	}

	n, err := services.PublishShifts(r.Context(), h.Store, h.Logger, req.IDs)
	if err != nil {
		h.writeServiceError(w, "Failed to publish events", err)
		return
	}
	writeJSON(w, http.StatusOK, PublishResponse{Published: n})
}

// DeleteEvent removes a shift. Removing a shift cannot break the fatigue policy, so it is
// not validated.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteShift(r.Context(), id); err != nil {
		h.writeServiceError(w, "Failed to delete event", err)
		return
	}
	h.Logger.Info("Shift deleted", zap.String("shift_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OPERATOR HANDLERS
// =============================================================================

// ListOperators returns all operators
func (h *Handler) ListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.Store.ListOperators(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list operators", err)
		return
	}
	if operators == nil {
		operators = []model.Operator{}
	}
	writeJSON(w, http.StatusOK, operators)
}

// PutOperator creates or replaces an operator
func (h *Handler) PutOperator(w http.ResponseWriter, r *http.Request) {
	var req OperatorRequest
	if !h.decode(w, r, &req) {
		return
	}

	op := &model.Operator{
		ID:         chi.URLParam(r, "id"),
		Name:       req.Name,
		Letter:     req.Letter,
		EmployeeID: req.EmployeeID,
		Phone:      req.Phone,
		Team:       req.Team,
		Jobs:       req.Jobs,
	}
	if err := h.Store.UpsertOperator(r.Context(), op); err != nil {
		h.writeServiceError(w, "Failed to save operator", err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// ListOperatorEvents returns the operator's shifts overlapping [from, to). from and to are
// YYYY-MM-DD; published=true|false filters by publication state.
func (h *Handler) ListOperatorEvents(w http.ResponseWriter, r *http.Request) {
	loc := h.Cfg.Location()
	q := r.URL.Query()

	from, err := time.ParseInLocation(dateLayout, q.Get("from"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (expected YYYY-MM-DD)", err)
		return
	}
	to, err := time.ParseInLocation(dateLayout, q.Get("to"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (expected YYYY-MM-DD)", err)
		return
	}

	var published *bool
	if raw := q.Get("published"); raw != "" {
		p, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid published filter", err)
			return
		}
		published = &p
	}

	shifts, err := h.Store.GetOperatorShifts(r.Context(), chi.URLParam(r, "id"), from, to, published)
	if err != nil {
		h.writeServiceError(w, "Failed to list events", err)
		return
	}
	if shifts == nil {
		shifts = []model.Shift{}
	}
	writeJSON(w, http.StatusOK, shifts)
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// GetFatiguePolicy returns the current fatigue policy
func (h *Handler) GetFatiguePolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := services.GetPolicy(r.Context(), h.Store)
	if errors.Is(err, fatigue.ErrConfigMissing) {
		writeError(w, http.StatusNotFound, "Fatigue policy has not been set", nil)
		return
	}
	if err != nil {
		h.writeServiceError(w, "Failed to get fatigue policy", err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// PutFatiguePolicy replaces the fatigue policy
func (h *Handler) PutFatiguePolicy(w http.ResponseWriter, r *http.Request) {
	var policy model.PolicyConfig
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := config.ValidatePolicy(policy); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fatigue policy", err)
		return
	}

	if err := services.SetPolicy(r.Context(), h.Store, h.Logger, policy); err != nil {
		h.writeServiceError(w, "Failed to save fatigue policy", err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GenerateSchedule fills the week containing weekOf for every rotating operator
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	weekOf, _ := time.ParseInLocation(dateLayout, req.WeekOf, h.Cfg.Location())
	result, err := services.GenerateTeamSchedule(r.Context(), h.Store, h.Cfg, h.Logger, weekOf)
	if err != nil {
		h.writeServiceError(w, "Failed to generate schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamScheduleDTO(result))
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body, writing a 400 and returning false on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP statuses. A missing policy is a server
// configuration problem and never reported as a rejection.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, fatigue.ErrConfigMissing):
		writeError(w, http.StatusServiceUnavailable, "Fatigue policy is not configured", err)
	case errors.Is(err, fatigue.ErrOperatorNotFound), errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeVerdict(w http.ResponseWriter, okStatus int, v *services.Verdict) {
	status := okStatus
	if !v.Accepted() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, toVerdictDTO(v))
}

func writeRangeResult(w http.ResponseWriter, r *services.RangeResult) {
	status := http.StatusCreated
	if r.Rejected() != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, toRangeResultDTO(r))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// ListenAndServe runs the HTTP server until it fails
func ListenAndServe(addr string, h *Handler) error {
	h.Logger.Info("HTTP server listening", zap.String("addr", addr))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}
