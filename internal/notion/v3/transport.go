package v3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the internal session API root.
const DefaultBaseURL = "https://www.notion.so/api/v3"

// SessionError is a non-2xx answer from the session API.
type SessionError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *SessionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("session API error (status %d)", e.Status)
}

// Transport is the session-authenticated HTTP client for the internal
// API. It knows two endpoints that matter: saveTransactions for writes
// and syncRecordValues for reads; a handful of feature endpoints ride
// along.
type Transport struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userID     string
	logger     zerolog.Logger
}

// NewTransport creates a session transport. The token is the stored
// browser session token; userID rides along as the active-user header.
func NewTransport(baseURL, token, userID string, logger zerolog.Logger) *Transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Transport{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		token:      token,
		userID:     userID,
		logger:     logger,
	}
}

// Post sends one JSON request to an endpoint under the API root and
// decodes the JSON answer into out (skipped when out is nil).
func (t *Transport) Post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", "token_v2="+t.token)
	if t.userID != "" {
		req.Header.Set("x-notion-active-user-header", t.userID)
	}

	t.logger.Debug().Str("endpoint", endpoint).Int("bytes", len(body)).Msg("session API request")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		sessionErr := &SessionError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, sessionErr); err != nil {
			return fmt.Errorf("session API error (status %d): %s", resp.StatusCode, string(data))
		}
		sessionErr.Status = resp.StatusCode
		return sessionErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// SaveTransactions submits one ordered operation list as a single
// transaction. Partial application is never observed: one logical user
// action maps to exactly one call here.
func (t *Transport) SaveTransactions(ctx context.Context, spaceID string, ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}
	payload := map[string]any{
		"requestId": uuid.NewString(),
		"transactions": []map[string]any{
			{
				"id":         uuid.NewString(),
				"spaceId":    spaceID,
				"operations": ops,
			},
		},
	}
	t.logger.Debug().Int("operations", len(ops)).Str("space", spaceID).Msg("submitting transaction")
	return t.Post(ctx, "saveTransactions", payload, nil)
}

type recordEnvelope struct {
	Value json.RawMessage `json:"value"`
}

type syncResponse struct {
	RecordMap map[string]map[string]recordEnvelope `json:"recordMap"`
}

// RecordMap holds raw record values keyed by table then id.
type RecordMap map[string]map[string]json.RawMessage

// Decode unmarshals one record into out; the boolean reports presence.
func (m RecordMap) Decode(table, id string, out any) (bool, error) {
	raw, ok := m[table][id]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s record %s: %w", table, id, err)
	}
	return true, nil
}

// SyncRecordValues reads the current values of the pointed-at records.
func (t *Transport) SyncRecordValues(ctx context.Context, pointers []Pointer) (RecordMap, error) {
	requests := make([]map[string]any, 0, len(pointers))
	for _, p := range pointers {
		requests = append(requests, map[string]any{
			"pointer": p,
			"version": -1,
		})
	}

	var resp syncResponse
	if err := t.Post(ctx, "syncRecordValues", map[string]any{"requests": requests}, &resp); err != nil {
		return nil, err
	}

	out := make(RecordMap, len(resp.RecordMap))
	for table, records := range resp.RecordMap {
		out[table] = make(map[string]json.RawMessage, len(records))
		for id, env := range records {
			out[table][id] = env.Value
		}
	}
	return out, nil
}

// SyncOne reads a single record into out; the boolean reports presence.
func (t *Transport) SyncOne(ctx context.Context, p Pointer, out any) (bool, error) {
	records, err := t.SyncRecordValues(ctx, []Pointer{p})
	if err != nil {
		return false, err
	}
	return records.Decode(p.Table, p.ID, out)
}
