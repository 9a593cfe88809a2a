package utility

import (
	"sync"

	"github.com/google/uuid"
)

// ExecutionID identifies one run of the engine. All events produced within a
// run carry the same execution id.
type ExecutionID = uuid.UUID

var (
	executionID     ExecutionID
	executionIDOnce sync.Once
	executionIDMu   sync.RWMutex
)

func GetExecutionID() ExecutionID {
	executionIDOnce.Do(func() {
		executionID = uuid.Must(uuid.NewV7())
	})

	executionIDMu.RLock()
	defer executionIDMu.RUnlock()
	return executionID
}

func ResetExecutionID() ExecutionID {
	executionIDMu.Lock()
	defer executionIDMu.Unlock()

	executionID = uuid.Must(uuid.NewV7())
	return executionID
}
