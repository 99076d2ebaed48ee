package feud

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// StorageKey names the persisted snapshot and is shared by every context.
const StorageKey = "paskong-pinoy-feud-state"

var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Encode serializes a state into its canonical snapshot form.
func Encode(s GameState) ([]byte, error) {
	return json.Marshal(canonical(s))
}

// Decode parses and validates a snapshot.
func Decode(data []byte) (GameState, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return GameState{}, fmt.Errorf("%w: empty", ErrMalformedSnapshot)
	}

	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	if err := validate(s); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	return canonical(s), nil
}

// Equal reports whether two states serialize to the same snapshot.
func Equal(a, b GameState) bool {
	ea, err := Encode(a)
	if err != nil {
		return false
	}
	eb, err := Encode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}

// canonical replaces nil slices with empty ones so a snapshot never
// carries null where a list is expected.
func canonical(s GameState) GameState {
	if s.Questions == nil {
		s.Questions = []Question{}
	}
	for i := range s.Questions {
		if s.Questions[i].Answers == nil {
			s.Questions[i].Answers = []Answer{}
		}
	}
	return s
}

func validate(s GameState) error {
	if !s.Phase.valid() {
		return fmt.Errorf("unknown phase %q", s.Phase)
	}
	if s.Teams.One.ID != Team1 || s.Teams.Two.ID != Team2 {
		return errors.New("team ids must be 1 and 2")
	}
	if s.Teams.One.Score < 0 || s.Teams.Two.Score < 0 {
		return errors.New("negative team score")
	}
	if s.Strikes < 0 || s.Strikes > MaxStrikes {
		return fmt.Errorf("strikes out of range: %d", s.Strikes)
	}
	if s.CurrentRoundScore < 0 {
		return fmt.Errorf("negative round score: %d", s.CurrentRoundScore)
	}
	if s.CurrentRoundIndex < 0 {
		return fmt.Errorf("negative round index: %d", s.CurrentRoundIndex)
	}
	if s.Phase == PhasePlaying || s.Phase == PhaseGameOver {
		if s.CurrentRoundIndex >= len(s.Questions) {
			return fmt.Errorf("round index %d outside %d questions", s.CurrentRoundIndex, len(s.Questions))
		}
	}
	return nil
}
