package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scenario-engine/internal/simulation"
)

// Record is the metadata kept next to a stored scenario. Every save gets a
// new RevisionID.
type Record struct {
	OwnerID    string    `json:"owner_id"`
	RevisionID uuid.UUID `json:"revision_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Lister is implemented by stores that can enumerate owners.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// NewRecord stamps a save for ownerID.
func NewRecord(ownerID string) Record {
	return Record{
		OwnerID:    ownerID,
		RevisionID: uuid.New(),
		UpdatedAt:  time.Now().UTC(),
	}
}

// EncodeInput serializes a scenario for the database backends.
func EncodeInput(in simulation.ScenarioInput) (string, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to marshal scenario: %w", err)
	}
	return string(b), nil
}

// DecodeInput is the inverse of EncodeInput. Fields missing from older rows
// keep their defaults.
func DecodeInput(payload string) (*simulation.ScenarioInput, error) {
	in := simulation.DefaultInput()
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	return &in, nil
}
