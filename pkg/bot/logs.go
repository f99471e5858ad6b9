package bot

import (
	"strings"
)

// LogSink is an io.Writer that forwards each written line to a bounded
// channel. Lines are dropped when the reader falls behind so logging never
// blocks the controller loop.
type LogSink struct {
	ch chan string
}

// NewLogSink returns a sink buffering up to size lines.
func NewLogSink(size int) *LogSink {
	return &LogSink{ch: make(chan string, size)}
}

func (s *LogSink) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		select {
		case s.ch <- line:
		default:
			// Drop if channel full
		}
	}
	return len(p), nil
}

// Lines returns a channel that receives log lines.
func (s *LogSink) Lines() <-chan string {
	return s.ch
}
