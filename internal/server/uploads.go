package server

import (
	"bytes"
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrUploadNotFound = errors.Base("upload not found")
	ErrChunkOrder     = errors.Base("chunk out of order")
	ErrUploadTooLarge = errors.Base("upload too large")
)

// UploadConfig bounds the upload store.
type UploadConfig struct {
	// MaxUploads is the maximum number of open sessions. The least recently
	// used session is dropped when a new one would exceed it.
	MaxUploads int
	// TTL expires sessions that have not received a chunk. 0 means no expiration.
	TTL time.Duration
	// MaxBytes bounds the assembled document.
	MaxBytes int64
}

// upload is a document assembled from ordered chunks.
type upload struct {
	id      string
	data    bytes.Buffer
	next    int
	expiry  time.Time
	element *list.Element
}

// UploadStore keeps chunked upload sessions in memory.
type UploadStore struct {
	mu      sync.Mutex
	uploads map[string]*upload
	lru     *list.List
	config  UploadConfig
	now     func() time.Time
}

// NewUploadStore creates an empty store.
func NewUploadStore(config UploadConfig) *UploadStore {
	if config.MaxUploads < 1 {
		config.MaxUploads = 1
	}
	return &UploadStore{
		uploads: make(map[string]*upload),
		lru:     list.New(),
		config:  config,
		now:     time.Now,
	}
}

// Create opens a new session and returns its id.
func (s *UploadStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	for s.lru.Len() >= s.config.MaxUploads {
		s.removeLocked(s.lru.Back().Value.(*upload))
	}

	u := &upload{id: uuid.NewString()}
	s.touchLocked(u)
	u.element = s.lru.PushFront(u)
	s.uploads[u.id] = u
	return u.id
}

// Append adds chunk index to the session. Chunks must arrive in order
// starting at 0; resending the previous index is rejected.
func (s *UploadStore) Append(id string, index int, chunk []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.getLocked(id)
	if err != nil {
		return 0, err
	}
	if index != u.next {
		return int64(u.data.Len()), errors.Errorf("%w: got %d, want %d", ErrChunkOrder, index, u.next)
	}
	if s.config.MaxBytes > 0 && int64(u.data.Len()+len(chunk)) > s.config.MaxBytes {
		s.removeLocked(u)
		return 0, errors.WithStack(ErrUploadTooLarge)
	}

	u.data.Write(chunk)
	u.next++
	s.touchLocked(u)
	s.lru.MoveToFront(u.element)
	return int64(u.data.Len()), nil
}

// Take removes the session and returns the assembled bytes.
func (s *UploadStore) Take(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	s.removeLocked(u)
	return u.data.Bytes(), nil
}

// Remove drops a session if present.
func (s *UploadStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.uploads[id]; ok {
		s.removeLocked(u)
	}
}

// Len returns the number of open sessions.
func (s *UploadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// Expire drops every session past its TTL and returns how many were dropped.
func (s *UploadStore) Expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked()
}

func (s *UploadStore) getLocked(id string) (*upload, error) {
	u, ok := s.uploads[id]
	if !ok {
		return nil, errors.WithStack(ErrUploadNotFound)
	}
	if s.expired(u) {
		s.removeLocked(u)
		return nil, errors.WithStack(ErrUploadNotFound)
	}
	return u, nil
}

func (s *UploadStore) expireLocked() int {
	n := 0
	for e := s.lru.Back(); e != nil; {
		prev := e.Prev()
		if u := e.Value.(*upload); s.expired(u) {
			s.removeLocked(u)
			n++
		}
		e = prev
	}
	return n
}

func (s *UploadStore) expired(u *upload) bool {
	return s.config.TTL > 0 && s.now().After(u.expiry)
}

func (s *UploadStore) touchLocked(u *upload) {
	if s.config.TTL > 0 {
		u.expiry = s.now().Add(s.config.TTL)
	}
}

func (s *UploadStore) removeLocked(u *upload) {
	delete(s.uploads, u.id)
	s.lru.Remove(u.element)
}
