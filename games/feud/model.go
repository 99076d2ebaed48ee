/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package feud

// Phase is the coarse lifecycle stage of a match.
type Phase string

const (
	PhaseRegistration Phase = "REGISTRATION"
	PhaseLoading      Phase = "LOADING"
	PhasePlaying      Phase = "PLAYING"
	PhaseGameOver     Phase = "GAME_OVER"
)

func (p Phase) valid() bool {
	switch p {
	case PhaseRegistration, PhaseLoading, PhasePlaying, PhaseGameOver:
		return true
	}
	return false
}

// TeamID identifies one of the two fixed teams.
type TeamID int

const (
	Team1 TeamID = 1
	Team2 TeamID = 2
)

func (id TeamID) valid() bool {
	return id == Team1 || id == Team2
}

// MaxStrikes caps the strike counter for a round.
const MaxStrikes = 3

type Team struct {
	ID    TeamID `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Teams holds both teams, keyed "1" and "2" on the wire.
type Teams struct {
	One Team `json:"1"`
	Two Team `json:"2"`
}

func (t *Teams) get(id TeamID) *Team {
	switch id {
	case Team1:
		return &t.One
	case Team2:
		return &t.Two
	}
	return nil
}

// Team returns a copy of the team with the given id.
func (t Teams) Team(id TeamID) (Team, bool) {
	p := t.get(id)
	if p == nil {
		return Team{}, false
	}
	return *p, true
}

type Answer struct {
	Text     string `json:"text"`
	Points   int    `json:"points"`
	Revealed bool   `json:"revealed"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// Clone returns a deep copy, never carrying a nil answer slice.
func (q Question) Clone() Question {
	answers := make([]Answer, len(q.Answers))
	copy(answers, q.Answers)
	q.Answers = answers
	return q
}

// Hidden returns a deep copy with every answer unrevealed.
func (q Question) Hidden() Question {
	c := q.Clone()
	for i := range c.Answers {
		c.Answers[i].Revealed = false
	}
	return c
}

// GameState is the root aggregate shared by every context of a match.
type GameState struct {
	Teams             Teams      `json:"teams"`
	CurrentRoundIndex int        `json:"currentRoundIndex"`
	Questions         []Question `json:"questions"`
	CurrentRoundScore int        `json:"currentRoundScore"`
	Strikes           int        `json:"strikes"`
	ShowStrikeOverlay bool       `json:"showStrikeOverlay"`
	Phase             Phase      `json:"phase"`
}

// NewGameState returns the initial empty match.
func NewGameState() GameState {
	return GameState{
		Teams: Teams{
			One: Team{ID: Team1},
			Two: Team{ID: Team2},
		},
		Questions: []Question{},
		Phase:     PhaseRegistration,
	}
}

// Clone returns a deep copy of the state.
func (s GameState) Clone() GameState {
	questions := make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = q.Clone()
	}
	s.Questions = questions
	return s
}

// CurrentQuestion returns the question of the active round, if any.
func (s GameState) CurrentQuestion() (Question, bool) {
	if s.CurrentRoundIndex < 0 || s.CurrentRoundIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentRoundIndex], true
}

// Restored reports whether a state loaded from storage is a live match.
func (s GameState) Restored() bool {
	return s.Phase == PhasePlaying || s.Phase == PhaseGameOver
}
