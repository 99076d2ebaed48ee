package feud

// Cue is a sound effect the boards play on host actions.
type Cue string

const (
	CueDing Cue = "ding"
	CueBuzz Cue = "buzz"
)

// Cues plays sound effects and background music. Failures stay inside the
// implementation and never affect the game state.
type Cues interface {
	PlayCue(kind Cue)
	SetMusicEnabled(enabled bool)
}

// NopCues discards every cue.
type NopCues struct{}

func (NopCues) PlayCue(Cue)          {}
func (NopCues) SetMusicEnabled(bool) {}
