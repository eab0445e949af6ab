package main

import (
	"context"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type recordingShutdowner struct {
	called chan struct{}
}

func (r *recordingShutdowner) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return context.Canceled
	}
	r.called <- struct{}{}
	return nil
}

func TestShutdownSignals(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
		go func() {
			ch <- syscall.SIGTERM
		}()
	}

	app := &recordingShutdowner{called: make(chan struct{}, 1)}
	shutdown(app, time.Millisecond, zaptest.NewLogger(t))

	select {
	case <-app.called:
	case <-time.After(time.Second):
		t.Fatalf("expected shutdown to be invoked")
	}
}
