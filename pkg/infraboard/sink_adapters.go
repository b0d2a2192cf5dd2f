package infraboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("infraboard: channel sink closed")

// ReportCallback receives every rendered report.
type ReportCallback func(*Report) error

// NewCallbackSink adapts a ReportCallback into a ReportSink so callers can
// plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn ReportCallback) ReportSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes reports via a channel; it returns the sink, the
// read-only channel, and a close function that the caller should invoke
// during shutdown.
func NewChannelSink(name string, buffer int) (ReportSink, <-chan *Report, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *Report, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   ReportCallback
}

func (s *callbackSink) WriteReport(_ context.Context, r *Report) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if r == nil {
		return nil
	}
	return s.fn(r)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan *Report
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) WriteReport(ctx context.Context, r *Report) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if r == nil {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- r:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}
