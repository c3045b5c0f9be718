// Package garmin implements the PlatformClient port against the Garmin
// Connect style HTTP API. Every method is one blocking round-trip with a
// bounded timeout; all failures are normalized into the four-category
// taxonomy before they leave this package.
package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jdambron/coachsync/internal/domain/model"
	"github.com/jdambron/coachsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PlatformClient = (*Client)(nil)

const (
	defaultBaseURL = "https://connectapi.garmin.com"

	// Platform calls are known to be slow; 15s covers the long tail without
	// hanging a request forever.
	defaultTimeout = 15 * time.Second
)

// identifierFields are the platform-assigned fields stripped from a payload
// before push, so the destination account assigns its own.
var identifierFields = []string{"workoutId", "ownerId", "createdDate", "updatedDate"}

// Client talks to the external fitness platform. It is stateless between
// calls: sessions are values returned by Authenticate and passed back in.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a production client with the default base URL and
// per-call timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// base URL, for pointing tests at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Authenticate logs into the platform and returns a short-lived session.
func (c *Client) Authenticate(ctx context.Context, email, password string) (model.Session, error) {
	body, err := json.Marshal(map[string]string{
		"username": email,
		"password": password,
	})
	if err != nil {
		return model.Session{}, model.NewPlatformError(model.CategoryUnexpected,
			"Something went wrong preparing the login request.", err)
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
		DisplayName string `json:"displayName"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", bytes.NewReader(body), &resp); err != nil {
		return model.Session{}, err
	}
	if resp.AccessToken == "" {
		return model.Session{}, model.NewPlatformError(model.CategoryUnexpected,
			"The platform returned an unusable login response.", nil)
	}

	return model.Session{
		Token:       resp.AccessToken,
		DisplayName: resp.DisplayName,
		IssuedAt:    time.Now(),
	}, nil
}

// ListWorkouts fetches workouts owned by the session's account.
func (c *Client) ListWorkouts(ctx context.Context, session model.Session, limit int) ([]model.RemoteWorkout, error) {
	path := "/workout-service/workouts"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
	}

	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, session.Token, nil, &raw); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workouts := make([]model.RemoteWorkout, 0, len(raw))
	for _, item := range raw {
		workouts = append(workouts, mapWorkout(item, now))
	}
	return workouts, nil
}

// FetchWorkout retrieves the full payload of one workout.
func (c *Client) FetchWorkout(ctx context.Context, session model.Session, remoteID string) (json.RawMessage, error) {
	var payload json.RawMessage
	path := "/workout-service/workout/" + url.PathEscape(remoteID)
	if err := c.do(ctx, http.MethodGet, path, session.Token, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// PushWorkout creates a new workout in the session's account. The
// platform-assigned identifier fields are stripped first, so the destination
// account assigns its own.
func (c *Client) PushWorkout(ctx context.Context, session model.Session, payload json.RawMessage) (string, error) {
	cleaned, err := stripIdentifiers(payload)
	if err != nil {
		return "", model.NewPlatformError(model.CategoryUnexpected,
			"The workout data could not be prepared for import.", err)
	}

	var resp map[string]json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/workout-service/workout", session.Token, bytes.NewReader(cleaned), &resp); err != nil {
		return "", err
	}

	newID := rawString(resp["workoutId"])
	if newID == "" {
		return "", model.NewPlatformError(model.CategoryUnexpected,
			"The platform accepted the workout but did not return its new identifier.", nil)
	}
	return newID, nil
}

// do performs one round-trip and decodes the JSON response into out.
// Non-2xx statuses and transport failures come back as *model.PlatformError.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return model.NewPlatformError(model.CategoryUnexpected,
			"Something went wrong preparing the platform request.", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return normalizeTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeStatus(resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.NewPlatformError(model.CategoryUnexpected,
			"The platform returned a response that could not be read.", err)
	}
	return nil
}

// stripIdentifiers removes the platform-assigned identifier fields from a
// workout payload. The payload is otherwise passed through unmodified.
func stripIdentifiers(payload json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("decode workout payload: %w", err)
	}
	for _, key := range identifierFields {
		delete(fields, key)
	}
	cleaned, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("re-encode workout payload: %w", err)
	}
	return cleaned, nil
}

// mapWorkout builds the cache-entry view of one raw platform workout. The
// raw item is kept as the opaque payload; only the fields needed for
// browsing are lifted out.
func mapWorkout(item json.RawMessage, fetchedAt time.Time) model.RemoteWorkout {
	var fields struct {
		WorkoutID   json.RawMessage `json:"workoutId"`
		WorkoutName string          `json:"workoutName"`
		Description string          `json:"description"`
		SportType   struct {
			SportTypeKey string `json:"sportTypeKey"`
		} `json:"sportType"`
	}
	// Tolerate shape drift: an undecodable item still lands in the cache
	// with its raw payload intact.
	_ = json.Unmarshal(item, &fields)

	name := fields.WorkoutName
	if name == "" {
		name = "Unnamed Workout"
	}

	return model.RemoteWorkout{
		RemoteID:    rawString(fields.WorkoutID),
		Name:        name,
		Sport:       mapSport(fields.SportType.SportTypeKey),
		Description: fields.Description,
		Payload:     item,
		FetchedAt:   fetchedAt,
	}
}

// mapSport folds the platform's free-form sport key into the local Sport
// vocabulary.
func mapSport(key string) model.Sport {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "running"), strings.Contains(key, "run"):
		return model.SportRun
	case strings.Contains(key, "cycling"), strings.Contains(key, "bik"):
		return model.SportBike
	case strings.Contains(key, "swim"):
		return model.SportSwim
	case strings.Contains(key, "strength"), strings.Contains(key, "cardio"):
		return model.SportStrength
	default:
		return model.SportOther
	}
}

// rawString renders a raw JSON scalar as a string. The platform is
// inconsistent about whether identifiers are numbers or strings.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
