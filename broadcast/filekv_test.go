package broadcast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKV_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")

	kv, err := NewFileKV(dir, zerolog.Nop())
	require.NoError(t, err)

	_, err = kv.Get(ctx, "state")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, "state", []byte(`{"a":1}`)))
	require.NoError(t, kv.Put(ctx, "state", []byte(`{"a":2}`)))

	v, err := kv.Get(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(v))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")

	require.NoError(t, kv.Delete(ctx, "state"))
	require.NoError(t, kv.Delete(ctx, "state"))

	_, err = kv.Get(ctx, "state")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileKV_WatchSeesOtherWriters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()

	reader, err := NewFileKV(dir, zerolog.Nop())
	require.NoError(t, err)
	writer, err := NewFileKV(dir, zerolog.Nop())
	require.NoError(t, err)

	var got inbox
	require.NoError(t, reader.Watch(ctx, "state", got.add))

	require.NoError(t, writer.Put(ctx, "unrelated", []byte("x")))
	require.NoError(t, writer.Put(ctx, "state", []byte("v1")))

	assert.Eventually(t, func() bool {
		msgs := got.all()
		return len(msgs) > 0 && msgs[len(msgs)-1] == "v1"
	}, 2*time.Second, 10*time.Millisecond)

	for _, m := range got.all() {
		assert.Equal(t, "v1", m)
	}
}
