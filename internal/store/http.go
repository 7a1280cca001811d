package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"scenario-engine/internal/simulation"
	"scenario-engine/pkg/platform"
)

// HTTPStore reads and writes scenarios through a running API server.
type HTTPStore struct {
	baseURL string
	client  *platform.HTTPClient
}

// NewHTTPStore creates a store for the server at baseURL (e.g. http://localhost:8080).
func NewHTTPStore(baseURL string, client *platform.HTTPClient) *HTTPStore {
	return &HTTPStore{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (h *HTTPStore) scenarioURL(ownerID string) string {
	return fmt.Sprintf("%s/api/v1/scenarios/%s", h.baseURL, url.PathEscape(ownerID))
}

func (h *HTTPStore) Load(ctx context.Context, ownerID string) (*simulation.ScenarioInput, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	resp, err := h.client.GetJSON(ctx, h.scenarioURL(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, statusError("load", resp)
	}

	var body struct {
		Input simulation.ScenarioInput `json:"input"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	return &body.Input, nil
}

func (h *HTTPStore) Save(ctx context.Context, ownerID string, input simulation.ScenarioInput) error {
	if err := ValidateOwnerID(ownerID); err != nil {
		return err
	}
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	resp, err := h.client.PutJSON(ctx, h.scenarioURL(ownerID), body)
	if err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError("save", resp)
	}
	return nil
}

func (h *HTTPStore) Ping(ctx context.Context) error {
	resp, err := h.client.GetJSON(ctx, h.baseURL+"/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("ping", resp)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("scenario %s returned status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
}
