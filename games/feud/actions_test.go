package feud

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoAnswerQuestion() Question {
	return Question{
		ID:   "q-test",
		Text: "Pick one",
		Answers: []Answer{
			{Text: "X", Points: 60},
			{Text: "Y", Points: 40},
		},
	}
}

func playing(t *testing.T, questions ...Question) GameState {
	t.Helper()

	s := Apply(NewGameState(), StartMatch{Team1: "A", Team2: "B", Questions: questions})
	require.Equal(t, PhasePlaying, s.Phase)

	return s
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := playing(t, twoAnswerQuestion())
	before := s.Clone()

	_ = Apply(s, ToggleAnswer{Index: 0})
	_ = Apply(s, RegisterStrike{})
	_ = Apply(s, AwardRound{Team: Team1})

	if diff := cmp.Diff(before, s); diff != "" {
		t.Fatalf("input state mutated (-before +after):\n%s", diff)
	}
}

func TestStartMatch(t *testing.T) {
	s := playing(t, twoAnswerQuestion())

	assert.Equal(t, "A", s.Teams.One.Name)
	assert.Equal(t, "B", s.Teams.Two.Name)
	assert.Equal(t, 0, s.CurrentRoundIndex)
	assert.Equal(t, 0, s.Strikes)
	assert.Equal(t, 0, s.CurrentRoundScore)
	assert.Len(t, s.Questions, 1)
}

func TestStartMatch_FromLoading(t *testing.T) {
	s := Apply(NewGameState(), BeginLoading{})
	require.Equal(t, PhaseLoading, s.Phase)

	s = Apply(s, StartMatch{Team1: "A", Team2: "B", Questions: []Question{twoAnswerQuestion()}})
	assert.Equal(t, PhasePlaying, s.Phase)
}

func TestStartMatch_Ignored(t *testing.T) {
	t.Run("no questions", func(t *testing.T) {
		s := Apply(NewGameState(), StartMatch{Team1: "A", Team2: "B"})
		assert.Equal(t, PhaseRegistration, s.Phase)
		assert.Empty(t, s.Teams.One.Name)
	})

	t.Run("already playing", func(t *testing.T) {
		s := playing(t, twoAnswerQuestion())
		next := Apply(s, StartMatch{Team1: "C", Team2: "D", Questions: []Question{twoAnswerQuestion()}})
		assert.True(t, Equal(s, next))
	})
}

func TestToggleAnswer_Reversible(t *testing.T) {
	s := playing(t, twoAnswerQuestion())

	for n := 1; n <= 6; n++ {
		next := s
		for range n {
			next = Apply(next, ToggleAnswer{Index: 0})
		}

		if n%2 == 0 {
			assert.Equal(t, s.CurrentRoundScore, next.CurrentRoundScore, "even toggles, n=%d", n)
			assert.False(t, next.Questions[0].Answers[0].Revealed)
		} else {
			assert.Equal(t, s.CurrentRoundScore+60, next.CurrentRoundScore, "odd toggles, n=%d", n)
			assert.True(t, next.Questions[0].Answers[0].Revealed)
		}
	}
}

func TestToggleAnswer_ClampsAtZero(t *testing.T) {
	s := playing(t, twoAnswerQuestion())
	s.Questions[0].Answers[0].Revealed = true
	s.CurrentRoundScore = 10

	s = Apply(s, ToggleAnswer{Index: 0})

	assert.Equal(t, 0, s.CurrentRoundScore)
	assert.False(t, s.Questions[0].Answers[0].Revealed)
}

func TestToggleAnswer_OutOfRange(t *testing.T) {
	s := playing(t, twoAnswerQuestion())

	for _, idx := range []int{-1, 2, 99} {
		assert.True(t, Equal(s, Apply(s, ToggleAnswer{Index: idx})), "index %d", idx)
	}

	empty := NewGameState()
	assert.True(t, Equal(empty, Apply(empty, ToggleAnswer{Index: 0})))
}

func TestRegisterStrike_Caps(t *testing.T) {
	s := playing(t, twoAnswerQuestion())

	for range 3 {
		s = Apply(s, RegisterStrike{})
	}
	assert.Equal(t, 3, s.Strikes)
	assert.True(t, s.ShowStrikeOverlay)

	s = Apply(s, ClearStrikeOverlay{})
	s = Apply(s, RegisterStrike{})
	assert.Equal(t, 3, s.Strikes)
	assert.False(t, s.ShowStrikeOverlay, "capped strike must not raise the overlay")
}

func TestClearStrikeOverlay_Idempotent(t *testing.T) {
	s := Apply(playing(t, twoAnswerQuestion()), RegisterStrike{})

	once := Apply(s, ClearStrikeOverlay{})
	twice := Apply(once, ClearStrikeOverlay{})

	assert.False(t, once.ShowStrikeOverlay)
	assert.True(t, Equal(once, twice))
	assert.Equal(t, 1, twice.Strikes)
}

func TestClearStrikes_KeepsOverlay(t *testing.T) {
	s := Apply(playing(t, twoAnswerQuestion()), RegisterStrike{})
	s = Apply(s, ClearStrikes{})

	assert.Equal(t, 0, s.Strikes)
	assert.True(t, s.ShowStrikeOverlay)
}

func TestAwardRound(t *testing.T) {
	second := twoAnswerQuestion()
	second.ID = "q-second"

	s := playing(t, twoAnswerQuestion(), second)
	s = Apply(s, ToggleAnswer{Index: 1})
	s = Apply(s, RegisterStrike{})

	s = Apply(s, AwardRound{Team: Team2})
	assert.Equal(t, 40, s.Teams.Two.Score)
	assert.Equal(t, 1, s.CurrentRoundIndex)
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Zero(t, s.CurrentRoundScore)
	assert.Zero(t, s.Strikes)

	s = Apply(s, AwardRound{Team: Team1})
	assert.Equal(t, PhaseGameOver, s.Phase)
	assert.Equal(t, 1, s.CurrentRoundIndex, "last round index is frozen")
}

func TestAwardRound_KeepsStaleOverlay(t *testing.T) {
	s := playing(t, twoAnswerQuestion(), twoAnswerQuestion())
	s = Apply(s, RegisterStrike{})
	s = Apply(s, AwardRound{Team: Team1})

	assert.True(t, s.ShowStrikeOverlay)
	assert.Zero(t, s.Strikes)
}

func TestAwardRound_Ignored(t *testing.T) {
	empty := NewGameState()
	assert.True(t, Equal(empty, Apply(empty, AwardRound{Team: Team1})))

	s := playing(t, twoAnswerQuestion())
	assert.True(t, Equal(s, Apply(s, AwardRound{Team: 3})))
}

func TestReplaceCurrentQuestion(t *testing.T) {
	s := playing(t, twoAnswerQuestion(), twoAnswerQuestion())
	s = Apply(s, ToggleAnswer{Index: 0})
	s = Apply(s, AwardRound{Team: Team1})
	s = Apply(s, ToggleAnswer{Index: 0})
	s = Apply(s, RegisterStrike{})
	require.Equal(t, 60, s.CurrentRoundScore)

	replacement := Question{
		ID:      "fresh",
		Text:    "Something new",
		Answers: []Answer{{Text: "Z", Points: 100, Revealed: true}},
	}
	s = Apply(s, ReplaceCurrentQuestion{Question: replacement})

	assert.Zero(t, s.CurrentRoundScore)
	assert.Zero(t, s.Strikes)
	assert.Equal(t, 1, s.CurrentRoundIndex)
	assert.Equal(t, 60, s.Teams.One.Score)
	assert.Equal(t, "fresh", s.Questions[1].ID)
	assert.False(t, s.Questions[1].Answers[0].Revealed)
}

func TestResetMatch(t *testing.T) {
	s := playing(t, twoAnswerQuestion())
	s = Apply(s, ToggleAnswer{Index: 0})
	s = Apply(s, AwardRound{Team: Team1})

	s = Apply(s, ResetMatch{})

	if diff := cmp.Diff(NewGameState(), s); diff != "" {
		t.Fatalf("reset state differs (-want +got):\n%s", diff)
	}
}

func TestScenario_OneQuestionMatch(t *testing.T) {
	s := playing(t, twoAnswerQuestion())

	s = Apply(s, ToggleAnswer{Index: 0})
	assert.Equal(t, 60, s.CurrentRoundScore)

	s = Apply(s, ToggleAnswer{Index: 1})
	assert.Equal(t, 100, s.CurrentRoundScore)

	s = Apply(s, AwardRound{Team: Team1})
	assert.Equal(t, 100, s.Teams.One.Score)
	assert.Equal(t, PhaseGameOver, s.Phase)
	assert.Zero(t, s.CurrentRoundScore)
	assert.Zero(t, s.Strikes)
}

func TestApply_Deterministic(t *testing.T) {
	actions := []Action{
		BeginLoading{},
		StartMatch{Team1: "A", Team2: "B", Questions: []Question{twoAnswerQuestion(), twoAnswerQuestion()}},
		ToggleAnswer{Index: 1},
		RegisterStrike{},
		RegisterStrike{},
		ClearStrikeOverlay{},
		AwardRound{Team: Team2},
		ToggleAnswer{Index: 0},
		ReplaceCurrentQuestion{Question: twoAnswerQuestion()},
		ToggleAnswer{Index: 0},
		AwardRound{Team: Team1},
	}

	a, b := NewStore(), NewStore()
	for _, action := range actions {
		a.Dispatch(action)
		b.Dispatch(action)
	}

	ea, err := a.Encode()
	require.NoError(t, err)
	eb, err := b.Encode()
	require.NoError(t, err)

	assert.Equal(t, string(ea), string(eb))
}
