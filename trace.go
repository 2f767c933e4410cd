package negcache

import (
	"github.com/google/uuid"
)

// Trace correlates the Debug/Query log lines produced by a single GetMessage
// call (DLVLookup takes no Trace). Passing a nil *Trace to GetMessage simply
// skips the id allocation; logging still happens, just without a correlation id.
type Trace struct {
	Id uuid.UUID
}

// NewTrace allocates a fresh trace id.
func NewTrace() *Trace {
	id, _ := uuid.NewV7()
	return &Trace{Id: id}
}

func (t *Trace) ID() string {
	if t == nil {
		return "-"
	}
	return t.Id.String()
}

// ShortID returns just the last 7 characters, unique enough for log grepping.
func (t *Trace) ShortID() string {
	id := t.ID()
	if len(id) < 7 {
		return id
	}
	return id[len(id)-7:]
}
