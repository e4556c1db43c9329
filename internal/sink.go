package internal

import (
	"io"
	"sync"
)

// Role tags an emitted line.
type Role int

const (
	RoleBefore Role = iota
	RoleMatch
	RoleAfter
)

// Marker is the one-character separator printed after the source label.
func (r Role) Marker() string {
	switch r {
	case RoleMatch:
		return ":"
	case RoleAfter:
		return "+"
	default:
		return "-"
	}
}

func (r Role) String() string {
	switch r {
	case RoleMatch:
		return "match"
	case RoleAfter:
		return "context-after"
	default:
		return "context-before"
	}
}

// OutputLine is one emission of a scanner.
type OutputLine struct {
	Source string
	Role   Role
	Text   string
}

// Sink receives output lines. Implementations must be safe for concurrent use
// and must write each line as one unit.
type Sink interface {
	Emit(OutputLine) error
}

// WriterSink formats lines as "<source><marker> <text>" and writes each one
// under a single lock.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w, buf: make([]byte, 0, 512)}
}

func (s *WriterSink) Emit(l OutputLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = s.buf[:0]
	s.buf = append(s.buf, l.Source...)
	s.buf = append(s.buf, l.Role.Marker()...)
	s.buf = append(s.buf, ' ')
	s.buf = append(s.buf, l.Text...)
	s.buf = append(s.buf, '\n')
	_, err := s.w.Write(s.buf)
	return err
}

// SinkFunc adapts a function to Sink. The function must do its own locking.
type SinkFunc func(OutputLine) error

func (f SinkFunc) Emit(l OutputLine) error { return f(l) }
