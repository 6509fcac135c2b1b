package main

import (
	"sync"

	"healthsync/internal/logger"
)

// memoryRouter is the harness's stand-in for the app's navigation
// layer, adapted to the guard's Router interface.
type memoryRouter struct {
	mu     sync.Mutex
	path   string
	logger *logger.Logger
}

func (r *memoryRouter) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

func (r *memoryRouter) Replace(path string) {
	r.mu.Lock()
	if r.path != path {
		r.logger.Infof("Router: %s -> %s", r.path, path)
		r.path = path
	}
	r.mu.Unlock()
}
