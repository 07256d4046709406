package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestUploadStoreAssemblesChunks(t *testing.T) {
	s := NewUploadStore(UploadConfig{MaxUploads: 4})
	id := s.Create()

	n, err := s.Append(id, 0, []byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	n, err = s.Append(id, 1, []byte("world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	data, err := s.Take(id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, 0, s.Len())

	_, err = s.Take(id)
	assert.True(t, errors.Is(err, ErrUploadNotFound))
}

func TestUploadStoreChunkOrder(t *testing.T) {
	s := NewUploadStore(UploadConfig{MaxUploads: 4})
	id := s.Create()

	_, err := s.Append(id, 1, []byte("x"))
	assert.True(t, errors.Is(err, ErrChunkOrder))

	_, err = s.Append(id, 0, []byte("x"))
	require.NoError(t, err)
	_, err = s.Append(id, 0, []byte("x"))
	assert.True(t, errors.Is(err, ErrChunkOrder))
}

func TestUploadStoreMaxBytes(t *testing.T) {
	s := NewUploadStore(UploadConfig{MaxUploads: 4, MaxBytes: 4})
	id := s.Create()

	_, err := s.Append(id, 0, []byte("abc"))
	require.NoError(t, err)
	_, err = s.Append(id, 1, []byte("de"))
	assert.True(t, errors.Is(err, ErrUploadTooLarge))

	// an oversized session is dropped
	_, err = s.Take(id)
	assert.True(t, errors.Is(err, ErrUploadNotFound))
}

func TestUploadStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewUploadStore(UploadConfig{MaxUploads: 2})
	first := s.Create()
	second := s.Create()

	// touching first makes second the eviction candidate
	_, err := s.Append(first, 0, []byte("x"))
	require.NoError(t, err)

	third := s.Create()
	assert.Equal(t, 2, s.Len())

	_, err = s.Take(second)
	assert.True(t, errors.Is(err, ErrUploadNotFound))
	_, err = s.Take(first)
	assert.NoError(t, err)
	_, err = s.Take(third)
	assert.NoError(t, err)
}

func TestUploadStoreTTL(t *testing.T) {
	now := time.Now()
	s := NewUploadStore(UploadConfig{MaxUploads: 4, TTL: time.Minute})
	s.now = func() time.Time { return now }

	stale := s.Create()
	now = now.Add(30 * time.Second)
	fresh := s.Create()
	now = now.Add(45 * time.Second)

	_, err := s.Append(stale, 0, []byte("x"))
	assert.True(t, errors.Is(err, ErrUploadNotFound))
	_, err = s.Append(fresh, 0, []byte("x"))
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Expire())
	assert.Equal(t, 0, s.Len())
}

func TestUploadStoreRemove(t *testing.T) {
	s := NewUploadStore(UploadConfig{})
	id := s.Create()
	s.Remove(id)
	s.Remove(id)
	assert.Equal(t, 0, s.Len())
}
