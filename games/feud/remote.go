/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package feud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var (
	ErrRemoteFailed   = errors.New("remote question source failed")
	ErrRemoteDisabled = errors.New("remote question source not configured")
	errInvalidPayload = errors.New("invalid question payload")
)

const (
	replacementPrompt = "Generate 1 unique Family Feud question about Filipino Christmas."
	batchPrompt       = "Generate %d unique Family Feud questions about Filipino Christmas."
)

// GenerateRequest is one structured-output call to a text generator.
type GenerateRequest struct {
	Prompt      string
	Schema      map[string]any
	Temperature float64
}

// Generator produces JSON text for a prompt. It is the only thing the game
// knows about the language model behind it.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

var questionSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"text": map[string]any{
			"type":        "STRING",
			"description": "The Family Feud style question text in Taglish/Tagalog",
		},
		"answers": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"text":   map[string]any{"type": "STRING", "description": "Answer text"},
					"points": map[string]any{"type": "INTEGER", "description": "Survey points"},
				},
			},
		},
	},
	"required": []string{"text", "answers"},
}

var batchSchema = map[string]any{
	"type":  "ARRAY",
	"items": questionSchema,
}

type remoteAnswer struct {
	Text   string `json:"text"`
	Points int    `json:"points"`
}

type remoteQuestion struct {
	Text    string         `json:"text"`
	Answers []remoteAnswer `json:"answers"`
}

func (rq remoteQuestion) toQuestion(id string) (Question, error) {
	if strings.TrimSpace(rq.Text) == "" {
		return Question{}, fmt.Errorf("%w: missing question text", errInvalidPayload)
	}
	if len(rq.Answers) == 0 {
		return Question{}, fmt.Errorf("%w: no answers", errInvalidPayload)
	}

	q := Question{
		ID:      id,
		Text:    strings.TrimSpace(rq.Text),
		Answers: make([]Answer, 0, len(rq.Answers)),
	}
	for _, a := range rq.Answers {
		text := strings.TrimSpace(a.Text)
		if text == "" {
			return Question{}, fmt.Errorf("%w: empty answer text", errInvalidPayload)
		}
		q.Answers = append(q.Answers, Answer{Text: strings.ToUpper(text), Points: a.Points})
	}

	return Normalize(q), nil
}

// RemoteSource asks a Generator for questions, retrying a bounded number
// of times with a fixed pause between attempts.
type RemoteSource struct {
	gen      Generator
	clock    clockwork.Clock
	attempts int
	backoff  time.Duration
	log      zerolog.Logger
}

type RemoteOption func(*RemoteSource)

func WithClock(c clockwork.Clock) RemoteOption {
	return func(r *RemoteSource) {
		r.clock = c
	}
}

// WithRetry sets the number of attempts and the pause between them.
func WithRetry(attempts int, backoff time.Duration) RemoteOption {
	return func(r *RemoteSource) {
		r.attempts = max(1, attempts)
		r.backoff = backoff
	}
}

func WithRemoteLogger(l zerolog.Logger) RemoteOption {
	return func(r *RemoteSource) {
		r.log = l
	}
}

func NewRemoteSource(gen Generator, opts ...RemoteOption) *RemoteSource {
	r := &RemoteSource{
		gen:      gen,
		clock:    clockwork.NewRealClock(),
		attempts: 3,
		backoff:  time.Second,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Question fetches a single replacement question.
func (r *RemoteSource) Question(ctx context.Context) (Question, error) {
	var q Question

	err := r.retry(ctx, func(ctx context.Context) error {
		data, err := r.gen.Generate(ctx, GenerateRequest{
			Prompt:      replacementPrompt,
			Schema:      questionSchema,
			Temperature: 1.0,
		})
		if err != nil {
			return err
		}

		var rq remoteQuestion
		if err := json.Unmarshal(data, &rq); err != nil {
			return fmt.Errorf("%w: %v", errInvalidPayload, err)
		}

		q, err = rq.toQuestion("ai-" + uuid.NewString())
		return err
	})

	return q, err
}

// Batch fetches n questions for a new match.
func (r *RemoteSource) Batch(ctx context.Context, n int) ([]Question, error) {
	var batch []Question

	err := r.retry(ctx, func(ctx context.Context) error {
		data, err := r.gen.Generate(ctx, GenerateRequest{
			Prompt:      fmt.Sprintf(batchPrompt, n),
			Schema:      batchSchema,
			Temperature: 0.9,
		})
		if err != nil {
			return err
		}

		var rqs []remoteQuestion
		if err := json.Unmarshal(data, &rqs); err != nil {
			return fmt.Errorf("%w: %v", errInvalidPayload, err)
		}
		if len(rqs) == 0 {
			return fmt.Errorf("%w: empty batch", errInvalidPayload)
		}

		prefix := "ai-set-" + uuid.NewString()
		out := make([]Question, 0, len(rqs))
		for i, rq := range rqs {
			q, err := rq.toQuestion(fmt.Sprintf("%s-%d", prefix, i))
			if err != nil {
				return err
			}
			out = append(out, q)
		}
		batch = out

		return nil
	})

	return batch, err
}

func (r *RemoteSource) retry(ctx context.Context, fn func(context.Context) error) error {
	var last error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if last = fn(ctx); last == nil {
			return nil
		}

		r.log.Warn().
			Err(last).
			Int("attempt", attempt).
			Int("attempts", r.attempts).
			Msg("remote question request failed")

		if attempt == r.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrRemoteFailed, ctx.Err())
		case <-r.clock.After(r.backoff):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRemoteFailed, r.attempts, last)
}
