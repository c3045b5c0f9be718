package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jdambron/coachsync/internal/application"
	"github.com/jdambron/coachsync/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRequest is the JSON body for the register endpoint.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the access token and the authenticated user.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the JSON representation of an account, without secrets.
type UserResponse struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	CoachID     *int64 `json:"coach_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

// ConnectRequest is the JSON body for the platform connect endpoint. The
// credentials are the user's platform login, not their account password.
type ConnectRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerificationResponse is the JSON representation of a connection check.
type VerificationResponse struct {
	Connected       bool     `json:"connected"`
	Category        string   `json:"category,omitempty"`
	Message         string   `json:"message"`
	Recommendations []string `json:"recommendations"`
	DisplayName     string   `json:"display_name,omitempty"`
}

// CredentialResponse is stored-credential metadata; never secret material.
type CredentialResponse struct {
	Connected      bool   `json:"connected"`
	LastVerifiedAt string `json:"last_verified_at,omitempty"`
	LastError      string `json:"last_error,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// AthleteResponse is one roster row on the coach dashboard.
type AthleteResponse struct {
	User         UserResponse `json:"user"`
	Connected    bool         `json:"connected"`
	LastVerified string       `json:"last_verified_at,omitempty"`
	LastError    string       `json:"last_error,omitempty"`
}

// WorkoutResponse is the JSON representation of a cached platform workout.
type WorkoutResponse struct {
	RemoteID    string `json:"remote_id"`
	Name        string `json:"name"`
	Sport       string `json:"sport"`
	Description string `json:"description,omitempty"`
	FetchedAt   string `json:"fetched_at"`
}

// WorkoutListResponse wraps the catalog with its staleness flag.
type WorkoutListResponse struct {
	Workouts []WorkoutResponse `json:"workouts"`
	Stale    bool              `json:"stale"`
}

// ShareRequest is the JSON body for the share endpoint.
type ShareRequest struct {
	AthleteID  int64    `json:"athlete_id"`
	WorkoutIDs []string `json:"workout_ids"`
}

// ShareOutcomeResponse reports what a share call created and skipped.
type ShareOutcomeResponse struct {
	BatchID string                  `json:"batch_id"`
	Shared  []SharedWorkoutResponse `json:"shared"`
	Skipped []string                `json:"skipped"`
}

// ShareRejectedResponse is returned when the athlete's connection check
// blocks the whole batch.
type ShareRejectedResponse struct {
	Error        string               `json:"error"`
	Verification VerificationResponse `json:"verification"`
}

// SharedWorkoutResponse is the JSON representation of one share.
type SharedWorkoutResponse struct {
	ID            int64  `json:"id"`
	BatchID       string `json:"batch_id"`
	CoachID       int64  `json:"coach_id"`
	Name          string `json:"name"`
	Sport         string `json:"sport"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	Attempts      int    `json:"attempts"`
	LastError     string `json:"last_error,omitempty"`
	LastCategory  string `json:"last_category,omitempty"`
	ImportedID    string `json:"imported_id,omitempty"`
	SharedAt      string `json:"shared_at"`
	LastAttemptAt string `json:"last_attempt_at,omitempty"`
	ImportedAt    string `json:"imported_at,omitempty"`
}

// ImportRequest is the JSON body for the import endpoint.
type ImportRequest struct {
	SharedWorkoutIDs []int64 `json:"shared_workout_ids"`
}

// ImportResultResponse is the per-item outcome of an import call.
type ImportResultResponse struct {
	SharedWorkoutID int64  `json:"shared_workout_id"`
	Status          string `json:"status,omitempty"`
	Imported        bool   `json:"imported"`
	Skipped         bool   `json:"skipped,omitempty"`
	Message         string `json:"message"`
	Category        string `json:"category,omitempty"`
	ImportedID      string `json:"imported_id,omitempty"`
}

// SendMessageRequest is the JSON body for the send message endpoint.
type SendMessageRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// MessageResponse is the JSON representation of a message. BodyHTML is the
// sanitized rendering of the markdown body.
type MessageResponse struct {
	ID        int64  `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	BodyHTML  string `json:"body_html"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// PlatformErrorResponse carries a normalized platform failure to the client.
type PlatformErrorResponse struct {
	Category string `json:"category"`
	Error    string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toUserResponse(u model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CoachID:   u.CoachID,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		resp.LastLoginAt = u.LastLoginAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toVerificationResponse(r application.VerificationResult) VerificationResponse {
	recs := r.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return VerificationResponse{
		Connected:       r.Connected,
		Category:        string(r.Category),
		Message:         r.Message,
		Recommendations: recs,
		DisplayName:     r.DisplayName,
	}
}

func toCredentialResponse(c *model.Credential) CredentialResponse {
	if c == nil {
		return CredentialResponse{Connected: false}
	}
	resp := CredentialResponse{
		Connected: true,
		LastError: c.LastError,
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if c.LastVerifiedAt != nil {
		resp.LastVerifiedAt = c.LastVerifiedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toAthleteResponse(o application.AthleteOverview) AthleteResponse {
	resp := AthleteResponse{
		User:      toUserResponse(o.Athlete),
		Connected: o.Connected,
		LastError: o.LastError,
	}
	if o.LastVerified != nil {
		resp.LastVerified = o.LastVerified.UTC().Format(time.RFC3339)
	}
	return resp
}

func toWorkoutListResponse(workouts []model.RemoteWorkout, stale bool) WorkoutListResponse {
	resp := WorkoutListResponse{Workouts: make([]WorkoutResponse, 0, len(workouts)), Stale: stale}
	for _, w := range workouts {
		resp.Workouts = append(resp.Workouts, WorkoutResponse{
			RemoteID:    w.RemoteID,
			Name:        w.Name,
			Sport:       string(w.Sport),
			Description: w.Description,
			FetchedAt:   w.FetchedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}

func toShareOutcomeResponse(o application.ShareOutcome) ShareOutcomeResponse {
	shared := make([]SharedWorkoutResponse, 0, len(o.Shared))
	for _, s := range o.Shared {
		shared = append(shared, toSharedWorkoutResponse(s))
	}
	skipped := o.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return ShareOutcomeResponse{BatchID: o.BatchID, Shared: shared, Skipped: skipped}
}

func toSharedWorkoutResponse(s model.SharedWorkout) SharedWorkoutResponse {
	resp := SharedWorkoutResponse{
		ID:           s.ID,
		BatchID:      s.BatchID,
		CoachID:      s.CoachID,
		Name:         s.Name,
		Sport:        string(s.Sport),
		Description:  s.Description,
		Status:       string(s.PublicStatus()),
		Attempts:     s.Attempts,
		LastError:    s.LastError,
		LastCategory: string(s.LastCategory),
		ImportedID:   s.ImportedID,
		SharedAt:     s.SharedAt.UTC().Format(time.RFC3339),
	}
	if s.LastAttemptAt != nil {
		resp.LastAttemptAt = s.LastAttemptAt.UTC().Format(time.RFC3339)
	}
	if s.ImportedAt != nil {
		resp.ImportedAt = s.ImportedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toImportResultResponse(r application.ImportResult) ImportResultResponse {
	return ImportResultResponse{
		SharedWorkoutID: r.SharedWorkoutID,
		Status:          string(r.Status),
		Imported:        r.Imported,
		Skipped:         r.Skipped,
		Message:         r.Message,
		Category:        string(r.Category),
		ImportedID:      r.ImportedID,
	}
}

func toMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Subject:   m.Subject,
		Body:      m.Body,
		BodyHTML:  RenderMarkdown(m.Body),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
