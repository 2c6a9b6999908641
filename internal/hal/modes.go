package hal

import (
	"fmt"
	"sync"

	"hwc-composer/internal/composer"
)

// ModeTable is a composer.ModeInfoProvider backed by a map.
type ModeTable struct {
	mu    sync.RWMutex
	modes map[int]composer.ModeInfo
}

// NewModeTable returns a table with the given modes.
func NewModeTable(modes map[int]composer.ModeInfo) *ModeTable {
	t := &ModeTable{modes: make(map[int]composer.ModeInfo, len(modes))}
	for d, m := range modes {
		t.modes[d] = m
	}
	return t
}

// Set records the native mode of display.
func (t *ModeTable) Set(display int, m composer.ModeInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modes[display] = m
}

// ModeInfo implements composer.ModeInfoProvider.
func (t *ModeTable) ModeInfo(display int) (composer.ModeInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.modes[display]
	if !ok {
		return composer.ModeInfo{}, fmt.Errorf("hal: no mode for display %d", display)
	}
	return m, nil
}
