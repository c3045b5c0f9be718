// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jdambron/coachsync/internal/application"
	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Handler exposes the application services over JSON HTTP.
type Handler struct {
	auth        *application.AuthService
	credentials *application.CredentialService
	catalog     *application.CatalogService
	shares      *application.ShareService
	verifier    *application.VerifyService
	roster      *application.RosterService
	messages    *application.MessageService
	users       driven.UserStore
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	credentials *application.CredentialService,
	catalog *application.CatalogService,
	shares *application.ShareService,
	verifier *application.VerifyService,
	roster *application.RosterService,
	messages *application.MessageService,
	users driven.UserStore,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:        auth,
		credentials: credentials,
		catalog:     catalog,
		shares:      shares,
		verifier:    verifier,
		roster:      roster,
		messages:    messages,
		users:       users,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with auth, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	authed := func(role model.Role, fn http.HandlerFunc) http.Handler {
		return authMiddleware(h.auth, role, fn)
	}

	mux.Handle("POST /api/v1/platform/connect", authed("", h.ConnectPlatform))
	mux.Handle("GET /api/v1/platform/status", authed("", h.PlatformStatus))
	mux.Handle("POST /api/v1/platform/test", authed("", h.TestPlatform))
	mux.Handle("DELETE /api/v1/platform/disconnect", authed("", h.DisconnectPlatform))

	mux.Handle("GET /api/v1/coach/athletes", authed(model.RoleCoach, h.ListAthletes))
	mux.Handle("POST /api/v1/coach/athletes/{id}/link", authed(model.RoleCoach, h.LinkAthlete))
	mux.Handle("POST /api/v1/coach/athletes/{id}/unlink", authed(model.RoleCoach, h.UnlinkAthlete))
	mux.Handle("GET /api/v1/coach/athletes/{id}/connection", authed(model.RoleCoach, h.AthleteConnection))
	mux.Handle("POST /api/v1/coach/workouts/sync", authed(model.RoleCoach, h.SyncWorkouts))
	mux.Handle("GET /api/v1/coach/workouts", authed(model.RoleCoach, h.ListCachedWorkouts))
	mux.Handle("POST /api/v1/coach/share", authed(model.RoleCoach, h.ShareWorkouts))

	mux.Handle("POST /api/v1/athlete/coach/{id}", authed(model.RoleAthlete, h.SelectCoach))
	mux.Handle("GET /api/v1/athlete/workouts", authed(model.RoleAthlete, h.ListSharedWorkouts))
	mux.Handle("POST /api/v1/athlete/import", authed(model.RoleAthlete, h.ImportWorkouts))
	mux.Handle("POST /api/v1/athlete/workouts/{id}/retry", authed(model.RoleAthlete, h.RetryImport))
	mux.Handle("DELETE /api/v1/athlete/workouts/{id}", authed(model.RoleAthlete, h.RemoveSharedWorkout))

	mux.Handle("POST /api/v1/messages", authed("", h.SendMessage))
	mux.Handle("GET /api/v1/messages", authed("", h.Inbox))
	mux.Handle("POST /api/v1/messages/{id}/read", authed("", h.MarkMessageRead))

	mux.Handle("GET /api/v1/admin/users", authed(model.RoleAdmin, h.ListUsers))
	mux.Handle("POST /api/v1/admin/users/{id}/deactivate", authed(model.RoleAdmin, h.DeactivateUser))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.FullName, model.Role(req.Role))
	if err != nil {
		if errors.Is(err, driven.ErrEmailTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, application.ErrWeakPassword) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.badRequestOrInternal(w, err, "register user")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login verifies the password and returns an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidLogin) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserResponse(user)})
}

// ConnectPlatform stores platform credentials and runs an immediate
// connection check.
func (h *Handler) ConnectPlatform(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.credentials.Connect(r.Context(), userIDFrom(r), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrEmptyCredential) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("connect platform failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toVerificationResponse(result))
}

// PlatformStatus returns stored credential metadata without secrets.
func (h *Handler) PlatformStatus(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.Status(r.Context(), userIDFrom(r))
	if err != nil {
		h.logger.Error("platform status failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// TestPlatform re-runs the connection check against the stored credential.
func (h *Handler) TestPlatform(w http.ResponseWriter, r *http.Request) {
	result, err := h.credentials.Test(r.Context(), userIDFrom(r))
	if err != nil {
		h.logger.Error("platform test failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toVerificationResponse(result))
}

// DisconnectPlatform removes the stored credential.
func (h *Handler) DisconnectPlatform(w http.ResponseWriter, r *http.Request) {
	if err := h.credentials.Disconnect(r.Context(), userIDFrom(r)); err != nil {
		h.logger.Error("disconnect platform failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAthletes returns the coach's roster with connection states.
func (h *Handler) ListAthletes(w http.ResponseWriter, r *http.Request) {
	overviews, err := h.roster.ListAthletes(r.Context(), userIDFrom(r))
	if err != nil {
		h.logger.Error("list athletes failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AthleteResponse, 0, len(overviews))
	for _, o := range overviews {
		resp = append(resp, toAthleteResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// LinkAthlete links an athlete to the coach.
func (h *Handler) LinkAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.roster.LinkAthlete(r.Context(), userIDFrom(r), athleteID)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrAthleteNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, application.ErrAthleteAlreadyLinked):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("link athlete failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnlinkAthlete releases the coach-athlete link.
func (h *Handler) UnlinkAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.roster.UnlinkAthlete(r.Context(), userIDFrom(r), athleteID)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrAthleteNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, application.ErrNotLinked):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("unlink athlete failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AthleteConnection runs a live connection check against one of the coach's
// athletes.
func (h *Handler) AthleteConnection(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := pathID(w, r)
	if !ok {
		return
	}

	linked, err := h.roster.Linked(r.Context(), userIDFrom(r), athleteID)
	if err != nil {
		h.logger.Error("athlete connection check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !linked {
		writeError(w, http.StatusNotFound, "athlete not found")
		return
	}

	result, err := h.verifier.Verify(r.Context(), athleteID)
	if err != nil {
		h.logger.Error("athlete connection check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toVerificationResponse(result))
}

// SyncWorkouts refreshes the coach's workout cache from the platform.
func (h *Handler) SyncWorkouts(w http.ResponseWriter, r *http.Request) {
	sport := model.Sport(r.URL.Query().Get("sport"))

	workouts, err := h.catalog.Sync(r.Context(), userIDFrom(r), sport)
	if err != nil {
		h.writePlatformError(w, err, "sync workouts")
		return
	}

	writeJSON(w, http.StatusOK, toWorkoutListResponse(workouts, false))
}

// ListCachedWorkouts serves the locally cached catalog with a staleness flag.
func (h *Handler) ListCachedWorkouts(w http.ResponseWriter, r *http.Request) {
	sport := model.Sport(r.URL.Query().Get("sport"))

	workouts, stale, err := h.catalog.Cached(r.Context(), userIDFrom(r), sport)
	if err != nil {
		h.logger.Error("list cached workouts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toWorkoutListResponse(workouts, stale))
}

// ShareWorkouts creates a pending share batch for an athlete.
func (h *Handler) ShareWorkouts(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.WorkoutIDs) == 0 {
		writeError(w, http.StatusBadRequest, "workout_ids is required")
		return
	}

	outcome, err := h.shares.Share(r.Context(), userIDFrom(r), req.WorkoutIDs, req.AthleteID)
	if err != nil {
		var verr *application.VerificationFailedError
		var nce *application.NotCachedError
		switch {
		case errors.Is(err, application.ErrAthleteNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &verr):
			writeJSON(w, http.StatusConflict, ShareRejectedResponse{
				Error:        verr.Error(),
				Verification: toVerificationResponse(verr.Result),
			})
		case errors.As(err, &nce):
			writeError(w, http.StatusConflict, nce.Error())
		default:
			h.logger.Error("share workouts failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toShareOutcomeResponse(outcome))
}

// SelectCoach links the athlete to the chosen coach.
func (h *Handler) SelectCoach(w http.ResponseWriter, r *http.Request) {
	coachID, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.roster.SelectCoach(r.Context(), userIDFrom(r), coachID)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrCoachNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, application.ErrAthleteAlreadyLinked):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("select coach failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSharedWorkouts returns the athlete's shares, optionally filtered by
// status.
func (h *Handler) ListSharedWorkouts(w http.ResponseWriter, r *http.Request) {
	status := model.ShareStatus(r.URL.Query().Get("status"))

	shares, err := h.shares.ListForAthlete(r.Context(), userIDFrom(r), status)
	if err != nil {
		h.logger.Error("list shared workouts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]SharedWorkoutResponse, 0, len(shares))
	for _, s := range shares {
		resp = append(resp, toSharedWorkoutResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ImportWorkouts pushes the selected shares into the athlete's platform
// account and reports a per-item result.
func (h *Handler) ImportWorkouts(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.SharedWorkoutIDs) == 0 {
		writeError(w, http.StatusBadRequest, "shared_workout_ids is required")
		return
	}

	results, err := h.shares.Import(r.Context(), userIDFrom(r), req.SharedWorkoutIDs)
	if err != nil {
		h.logger.Error("import workouts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ImportResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, toImportResultResponse(res))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RetryImport moves a failed share back to pending.
func (h *Handler) RetryImport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.shares.Retry(r.Context(), userIDFrom(r), id)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrShareNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, application.ErrNotRetryable):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("retry import failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveSharedWorkout deletes a share. Removing a never-imported share needs
// ?confirm=true.
func (h *Handler) RemoveSharedWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	confirmed := r.URL.Query().Get("confirm") == "true"

	err := h.shares.Remove(r.Context(), userIDFrom(r), id, confirmed)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrShareNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, application.ErrRemoveNeedsConfirm):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("remove shared workout failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendMessage delivers a message to a linked user.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messages.Send(r.Context(), userIDFrom(r), req.RecipientID, req.Subject, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, application.ErrNotLinkedRecipient):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			h.logger.Error("send message failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// Inbox returns the caller's received messages with rendered bodies.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.Inbox(r.Context(), userIDFrom(r))
	if err != nil {
		h.logger.Error("inbox failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkMessageRead flags a received message as read.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.messages.MarkRead(r.Context(), userIDFrom(r), id); err != nil {
		if errors.Is(err, application.ErrMessageNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("mark message read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUsers returns every account for the admin view.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		u.PasswordHash = ""
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeactivateUser disables an account.
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.users.SetActive(r.Context(), id, false); err != nil {
		h.logger.Error("deactivate user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writePlatformError maps a platform failure category to an HTTP status with
// the user-facing message, falling back to 500 for everything else.
func (h *Handler) writePlatformError(w http.ResponseWriter, err error, op string) {
	var pe *model.PlatformError
	if errors.As(err, &pe) {
		status := http.StatusBadGateway
		switch pe.Category {
		case model.CategoryInvalidCredentials:
			status = http.StatusUnprocessableEntity
		case model.CategoryRateLimited:
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, PlatformErrorResponse{Category: string(pe.Category), Error: pe.Message})
		return
	}
	if errors.Is(err, driven.ErrCredentialNotFound) || errors.Is(err, driven.ErrCredentialCorrupted) {
		writeError(w, http.StatusUnprocessableEntity, "No working platform connection. Connect your account under Settings.")
		return
	}

	h.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handler) badRequestOrInternal(w http.ResponseWriter, err error, op string) {
	// Validation failures from the service layer are plain errors with
	// user-readable text; anything wrapped is treated as internal.
	if errors.Unwrap(err) == nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
