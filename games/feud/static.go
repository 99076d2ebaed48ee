/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package feud

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var builtinQuestions []byte

type staticAnswer struct {
	Text   string `yaml:"text"`
	Points int    `yaml:"points"`
}

type staticQuestion struct {
	ID      string         `yaml:"id"`
	Text    string         `yaml:"text"`
	Answers []staticAnswer `yaml:"answers"`
}

// StaticList is the fixed, always-available question list.
type StaticList struct {
	questions []Question
	pick      func(n int) int
}

// LoadStaticList parses a YAML question list.
func LoadStaticList(data []byte) (*StaticList, error) {
	var entries []staticQuestion
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse question list: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("question list is empty")
	}

	questions := make([]Question, 0, len(entries))
	for _, e := range entries {
		if e.Text == "" || len(e.Answers) == 0 {
			return nil, fmt.Errorf("question %q has no text or answers", e.ID)
		}
		q := Question{
			ID:      e.ID,
			Text:    e.Text,
			Answers: make([]Answer, 0, len(e.Answers)),
		}
		for _, a := range e.Answers {
			q.Answers = append(q.Answers, Answer{Text: a.Text, Points: a.Points})
		}
		questions = append(questions, q)
	}

	return &StaticList{
		questions: questions,
		pick:      rand.IntN,
	}, nil
}

// BuiltinStaticList returns the list compiled into the binary.
func BuiltinStaticList() *StaticList {
	l, err := LoadStaticList(builtinQuestions)
	if err != nil {
		panic("builtin question list: " + err.Error())
	}
	return l
}

// Len returns the number of questions in the list.
func (l *StaticList) Len() int {
	return len(l.questions)
}

// Batch returns the whole list, normalized and unrevealed.
func (l *StaticList) Batch() []Question {
	batch := make([]Question, len(l.questions))
	for i, q := range l.questions {
		batch[i] = Normalize(q.Hidden())
	}
	return batch
}

// Pick returns a random question from the list under a fresh id.
func (l *StaticList) Pick() Question {
	q := l.questions[l.pick(len(l.questions))].Hidden()
	q.ID = "replacement-fixed-" + uuid.NewString()
	return Normalize(q)
}
