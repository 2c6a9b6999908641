package hal

import (
	"sync"

	"hwc-composer/internal/composer"
)

// Buffer is an in-memory graphics buffer.
type Buffer struct {
	Handle      composer.BufferHandle
	PixelFormat composer.PixelFormat
	Width       int
	Height      int
	Pitch       composer.Stride
	Secure      bool
}

// Format implements composer.Buffer.
func (b *Buffer) Format() composer.PixelFormat { return b.PixelFormat }

// Stride implements composer.BufferGeometry.
func (b *Buffer) Stride() composer.Stride { return b.Pitch }

// Protected implements composer.BufferGeometry.
func (b *Buffer) Protected() bool { return b.Secure }

// BufferStore is a concurrency-safe in-memory composer.BufferManager.
type BufferStore struct {
	mu      sync.RWMutex
	buffers map[composer.BufferHandle]*Buffer
	locked  map[composer.BufferHandle]int
}

// NewBufferStore returns an empty store.
func NewBufferStore() *BufferStore {
	return &BufferStore{
		buffers: make(map[composer.BufferHandle]*Buffer),
		locked:  make(map[composer.BufferHandle]int),
	}
}

// Put adds or replaces a buffer.
func (s *BufferStore) Put(b *Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[b.Handle] = b
}

// Remove forgets a buffer. Later locks of its handle fail.
func (s *BufferStore) Remove(h composer.BufferHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, h)
}

// LockBuffer implements composer.BufferManager.
func (s *BufferStore) LockBuffer(h composer.BufferHandle) composer.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[h]
	if !ok {
		return nil
	}
	s.locked[h]++
	return b
}

// UnlockBuffer implements composer.BufferManager.
func (s *BufferStore) UnlockBuffer(buf composer.Buffer) {
	b, ok := buf.(*Buffer)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[b.Handle] > 0 {
		s.locked[b.Handle]--
	}
}

// LockCount returns how many locks on h are outstanding.
func (s *BufferStore) LockCount(h composer.BufferHandle) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked[h]
}
