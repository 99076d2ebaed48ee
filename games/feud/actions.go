/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package feud

// Action is a host intent that can be applied to a GameState.
type Action interface {
	apply(s GameState) GameState
}

// Apply returns the state that results from applying a to s. It never
// mutates s, and invalid targets leave the state as it was.
func Apply(s GameState, a Action) GameState {
	if a == nil {
		return s.Clone()
	}
	return a.apply(s.Clone())
}

// BeginLoading marks the match as waiting for its question batch.
type BeginLoading struct{}

func (BeginLoading) apply(s GameState) GameState {
	if s.Phase == PhaseRegistration {
		s.Phase = PhaseLoading
	}
	return s
}

type StartMatch struct {
	Team1     string
	Team2     string
	Questions []Question
}

func (a StartMatch) apply(s GameState) GameState {
	if s.Phase != PhaseRegistration && s.Phase != PhaseLoading {
		return s
	}
	if len(a.Questions) == 0 {
		return s
	}

	s.Teams.One.Name = a.Team1
	s.Teams.Two.Name = a.Team2

	s.Questions = make([]Question, len(a.Questions))
	for i, q := range a.Questions {
		s.Questions[i] = q.Clone()
	}

	s.Phase = PhasePlaying
	s.CurrentRoundIndex = 0
	s.Strikes = 0
	s.CurrentRoundScore = 0

	return s
}

type ToggleAnswer struct {
	Index int
}

func (a ToggleAnswer) apply(s GameState) GameState {
	if s.CurrentRoundIndex < 0 || s.CurrentRoundIndex >= len(s.Questions) {
		return s
	}
	q := &s.Questions[s.CurrentRoundIndex]
	if a.Index < 0 || a.Index >= len(q.Answers) {
		return s
	}

	answer := &q.Answers[a.Index]
	answer.Revealed = !answer.Revealed

	delta := answer.Points
	if !answer.Revealed {
		delta = -delta
	}
	s.CurrentRoundScore = max(0, s.CurrentRoundScore+delta)

	return s
}

type RegisterStrike struct{}

func (RegisterStrike) apply(s GameState) GameState {
	if s.Strikes >= MaxStrikes {
		return s
	}
	s.Strikes++
	s.ShowStrikeOverlay = true
	return s
}

type ClearStrikeOverlay struct{}

func (ClearStrikeOverlay) apply(s GameState) GameState {
	s.ShowStrikeOverlay = false
	return s
}

// ClearStrikes zeroes the counter and leaves the overlay alone.
type ClearStrikes struct{}

func (ClearStrikes) apply(s GameState) GameState {
	s.Strikes = 0
	return s
}

// AwardRound banks the pot for a team and moves to the next round, or
// ends the match on the last question. The strike overlay is not touched.
type AwardRound struct {
	Team TeamID
}

func (a AwardRound) apply(s GameState) GameState {
	team := s.Teams.get(a.Team)
	if team == nil || len(s.Questions) == 0 {
		return s
	}

	team.Score += s.CurrentRoundScore

	if s.CurrentRoundIndex+1 >= len(s.Questions) {
		s.Phase = PhaseGameOver
	} else {
		s.CurrentRoundIndex++
		s.Phase = PhasePlaying
	}

	s.CurrentRoundScore = 0
	s.Strikes = 0

	return s
}

type ReplaceCurrentQuestion struct {
	Question Question
}

func (a ReplaceCurrentQuestion) apply(s GameState) GameState {
	if s.CurrentRoundIndex < 0 || s.CurrentRoundIndex >= len(s.Questions) {
		return s
	}
	s.Questions[s.CurrentRoundIndex] = a.Question.Hidden()
	s.CurrentRoundScore = 0
	s.Strikes = 0
	return s
}

type ResetMatch struct{}

func (ResetMatch) apply(GameState) GameState {
	return NewGameState()
}
