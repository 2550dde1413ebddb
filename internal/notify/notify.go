package notify

import (
	"log"
	"sync"
)

// Severity classifies a toast for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Toast is a transient, non-blocking user notification.
type Toast struct {
	Message  string
	Severity Severity
}

// Toaster is the surface the state layer uses to notify the user. The UI
// supplies the real implementation; LogToaster is the fallback.
type Toaster interface {
	Toast(toast Toast)
}

// LogToaster writes toasts to the process log. Used when no UI is attached.
type LogToaster struct{}

func (LogToaster) Toast(toast Toast) {
	log.Printf("toast[%s]: %s", toast.Severity, toast.Message)
}

// Recorder buffers toasts in memory. The embedding UI drains it on each
// render pass; tests assert against it.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Toast(toast Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
}

// Drain returns all buffered toasts and clears the buffer.
func (r *Recorder) Drain() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.toasts
	r.toasts = nil
	return out
}

// Ensure implementations satisfy the interface
var (
	_ Toaster = LogToaster{}
	_ Toaster = (*Recorder)(nil)
)
