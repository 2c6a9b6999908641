package hal

import (
	"errors"
	"fmt"
	"sync"

	"hwc-composer/internal/composer"
)

// ErrNoDisplayDevice is returned by a Registry with no device.
var ErrNoDisplayDevice = errors.New("hal: no display device")

// PostError is the error returned by PostDevice when an error code is injected.
type PostError struct {
	Code int
}

func (e *PostError) Error() string {
	return fmt.Sprintf("hal: post failed with code %d", e.Code)
}

// Registry is a composer.DeviceRegistry resolving a fixed device.
type Registry struct {
	Device *PostDevice
}

// ResolveDisplayDevice implements composer.DeviceRegistry.
func (r *Registry) ResolveDisplayDevice() (composer.Device, error) {
	if r == nil || r.Device == nil {
		return nil, ErrNoDisplayDevice
	}
	return r.Device, nil
}

// Post is one recorded post call.
type Post struct {
	Handles  []composer.BufferHandle
	Contexts []uint64
}

// PostDevice records posts and can be told to fail them.
type PostDevice struct {
	mu        sync.Mutex
	posts     []Post
	errorCode int
	history   int
}

// NewPostDevice returns a device keeping at most history posts (0 keeps all).
func NewPostDevice(history int) *PostDevice {
	return &PostDevice{history: history}
}

// SetErrorCode makes subsequent posts fail with code; 0 restores success.
func (d *PostDevice) SetErrorCode(code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorCode = code
}

// Post implements composer.Device. The layers slice is copied; the caller
// reuses it next cycle.
func (d *PostDevice) Post(layers []composer.HardwareLayer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.errorCode != 0 {
		return &PostError{Code: d.errorCode}
	}

	p := Post{
		Handles:  make([]composer.BufferHandle, 0, len(layers)),
		Contexts: make([]uint64, 0, len(layers)),
	}
	for _, l := range layers {
		var h composer.BufferHandle
		if l.Layer != nil {
			h = l.Layer.Handle
		}
		p.Handles = append(p.Handles, h)
		p.Contexts = append(p.Contexts, l.Context)
	}
	d.posts = append(d.posts, p)
	if d.history > 0 && len(d.posts) > d.history {
		d.posts = d.posts[len(d.posts)-d.history:]
	}
	return nil
}

// Posts returns a copy of the recorded posts, oldest first.
func (d *PostDevice) Posts() []Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Post, len(d.posts))
	copy(out, d.posts)
	return out
}
