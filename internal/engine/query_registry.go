package engine

import (
	"context"
	"sync"

	"sqldeck/internal/model"
)

// QueryRegistry maps in-flight executions to their cancellation handles.
// Register/Unregister are paired on every code path by the adapter's
// connection scope; an id left behind after completion is a defect.
type QueryRegistry struct {
	mu      sync.Mutex
	entries map[model.ExecutionID]context.CancelFunc
}

// NewQueryRegistry creates an empty registry
func NewQueryRegistry() *QueryRegistry {
	return &QueryRegistry{
		entries: make(map[model.ExecutionID]context.CancelFunc),
	}
}

// Register associates an execution with its cancel function
func (qr *QueryRegistry) Register(id model.ExecutionID, cancel context.CancelFunc) {
	if id == "" {
		return
	}
	qr.mu.Lock()
	defer qr.mu.Unlock()
	qr.entries[id] = cancel
}

// Unregister removes an execution. Safe to call for ids never registered.
func (qr *QueryRegistry) Unregister(id model.ExecutionID) {
	qr.mu.Lock()
	defer qr.mu.Unlock()
	delete(qr.entries, id)
}

// Cancel signals cancellation to the driver behind an in-flight execution.
// Best effort: the client-side driver is told to abort; the server may
// still finish the statement. Returns whether a matching entry was found.
// Cancelling an unknown or already-finished id is a no-op.
func (qr *QueryRegistry) Cancel(id model.ExecutionID) bool {
	qr.mu.Lock()
	cancel, found := qr.entries[id]
	if found {
		delete(qr.entries, id)
	}
	qr.mu.Unlock()

	if found {
		cancel()
	}
	return found
}

// Active returns the number of in-flight registered executions
func (qr *QueryRegistry) Active() int {
	qr.mu.Lock()
	defer qr.mu.Unlock()
	return len(qr.entries)
}
