/*
store.go - Persistence interface for the ledger snapshot

PURPOSE:
  Defines the interface between the engine and whatever keeps the state
  between runs. The whole state is loaded once at startup and saved as
  one snapshot after every successful command.

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory for testing
  - store/file: JSON or YAML blob on disk
  - store/sqlite, store/postgres: Versioned snapshot rows

CONTRACT:
  - Load returns ErrNoState when nothing was ever saved
  - Load wraps ErrCorruptState when the blob cannot be decoded
  - Save persists a full snapshot; a failed Save leaves the previous
    snapshot readable

SEE ALSO:
  - processor.go: Calls Save exactly once per successful command
*/
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/moneyflow/ledger-engine/logging"
)

// =============================================================================
// STORE - Interface for snapshot persistence
// =============================================================================

type Store interface {
	// Load returns the last saved state.
	Load(ctx context.Context) (*State, error)

	// Save persists s as the current state.
	Save(ctx context.Context, s *State) error
}

// LoadOrDefault loads the persisted state, falling back to DefaultState
// when nothing was saved or the saved blob is unreadable. Other store
// errors are returned.
func LoadOrDefault(ctx context.Context, store Store, log logging.Logger) (*State, error) {
	s, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoState):
		log.Info("no saved ledger, starting from defaults")
		return DefaultState(), nil
	case errors.Is(err, ErrCorruptState):
		log.WithError(err).Warn("saved ledger is unreadable, starting from defaults")
		return DefaultState(), nil
	case err != nil:
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	s.Normalize()
	return s, nil
}

// =============================================================================
// CODEC - The persisted blob shape shared by the stores
// =============================================================================

// EncodeJSON renders s as the persisted JSON blob.
func EncodeJSON(s *State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return data, nil
}

// DecodeJSON parses a persisted JSON blob. Decode failures wrap
// ErrCorruptState.
func DecodeJSON(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	s.Normalize()
	return &s, nil
}
