package infraboard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var received []*Report
	sink := NewCallbackSink("cb", func(r *Report) error {
		received = append(received, r)
		return nil
	})

	input := &Report{ID: "r-1", Rows: 3}
	if err := sink.WriteReport(context.Background(), input); err != nil {
		t.Fatalf("WriteReport returned error: %v", err)
	}
	if len(received) != 1 || received[0] != input {
		t.Fatalf("expected report to be forwarded, got %+v", received)
	}
	if sink.Name() != "cb" {
		t.Fatalf("unexpected name %s", sink.Name())
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.WriteReport(context.Background(), &Report{}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %s", sink.Name())
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	input := &Report{ID: "r-2"}
	errCh := make(chan error, 1)

	go func() {
		errCh <- sink.WriteReport(context.Background(), input)
	}()

	var got *Report
	select {
	case got = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel report")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("WriteReport returned error: %v", err)
	}
	if got.ID != "r-2" {
		t.Fatalf("unexpected report: %+v", got)
	}

	closeFn()
	if err := sink.WriteReport(context.Background(), input); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}

func TestChannelSinkRespectsContext(t *testing.T) {
	sink, _, closeFn := NewChannelSink("chan", 0)
	defer closeFn()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.WriteReport(ctx, &Report{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
