package feud

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BatchSize is the number of questions a match is started with.
const BatchSize = 5

// Source supplies questions to the Controller.
type Source interface {
	// InitialBatch always resolves, falling back to the static list.
	InitialBatch(ctx context.Context) []Question
	// FromStaticList never fails.
	FromStaticList() Question
	// FromRemote may fail; callers keep their current question when it does.
	FromRemote(ctx context.Context) (Question, error)
}

// Questions combines the static list with an optional remote source.
type Questions struct {
	static       *StaticList
	remote       *RemoteSource
	batchTimeout time.Duration
	log          zerolog.Logger
}

// NewQuestions builds a Source. remote may be nil, in which case every
// batch comes from the static list and remote replacements are refused.
func NewQuestions(static *StaticList, remote *RemoteSource, batchTimeout time.Duration, log zerolog.Logger) *Questions {
	return &Questions{
		static:       static,
		remote:       remote,
		batchTimeout: batchTimeout,
		log:          log,
	}
}

func (q *Questions) InitialBatch(ctx context.Context) []Question {
	if q.remote == nil {
		q.log.Info().Msg("no remote source configured, using fixed question set")
		return q.static.Batch()
	}

	if q.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.batchTimeout)
		defer cancel()
	}

	batch, err := q.remote.Batch(ctx, BatchSize)
	if err != nil {
		q.log.Warn().Err(err).Msg("remote batch failed, loading fixed set")
		return q.static.Batch()
	}

	return batch
}

func (q *Questions) FromStaticList() Question {
	return q.static.Pick()
}

func (q *Questions) FromRemote(ctx context.Context) (Question, error) {
	if q.remote == nil {
		return Question{}, ErrRemoteDisabled
	}
	return q.remote.Question(ctx)
}
