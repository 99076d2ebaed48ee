package feud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func answers(points ...int) Question {
	q := Question{ID: "n", Text: "normalize"}
	for _, p := range points {
		q.Answers = append(q.Answers, Answer{Text: "A", Points: p})
	}
	return q
}

func pointsOf(q Question) []int {
	out := make([]int, len(q.Answers))
	for i, a := range q.Answers {
		out[i] = a.Points
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"already 100", []int{60, 40}, []int{60, 40}},
		{"short", []int{30, 20, 10}, []int{70, 20, 10}},
		{"over", []int{50, 40, 30}, []int{30, 40, 30}},
		{"tie goes to first", []int{40, 40, 10}, []int{50, 40, 10}},
		{"highest floored", []int{60, 59, 58}, []int{1, 41, 58}},
		{"non-positive raised", []int{0, -3, 50}, []int{1, 1, 98}},
		{"single answer", []int{7}, []int{100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(answers(tt.in...))
			assert.Equal(t, tt.want, pointsOf(got))
		})
	}
}

func TestNormalize_Invariants(t *testing.T) {
	inputs := [][]int{
		{1, 1, 1},
		{99, 99, 99, 99},
		{100, 100},
		{5, 0, 0, 0, 0, 0, 0},
		{-10, -20},
		{33, 33, 33},
		{250, 1, 1, 1},
		{2, 2, 2, 2, 2, 2, 2, 2},
	}

	for _, in := range inputs {
		got := Normalize(answers(in...))
		assert.Equal(t, SurveyTotal, sumPoints(got.Answers), "input %v", in)
		for _, a := range got.Answers {
			assert.Positive(t, a.Points, "input %v", in)
		}
	}
}

func TestNormalize_DoesNotMutate(t *testing.T) {
	q := answers(10, 10)
	_ = Normalize(q)
	assert.Equal(t, []int{10, 10}, pointsOf(q))
}

func TestNormalize_Empty(t *testing.T) {
	q := Normalize(Question{ID: "empty"})
	assert.Empty(t, q.Answers)
}
