package sink

import (
	"context"
	"errors"
	"time"
)

// ErrSlotTimeout 获取连接槽位超时
var ErrSlotTimeout = errors.New("timed out waiting for sink connection slot")

// Gatekeeper enforces the hard cap of one live connection to the BI sink.
// Every sink operation must Acquire before opening a connection and Release
// afterwards; Acquire waits at most the configured timeout so a stuck run
// cannot hold other callers hostage forever.
type Gatekeeper struct {
	slot    chan struct{}
	timeout time.Duration
}

// NewGatekeeper 创建单槽位连接门卫
func NewGatekeeper(timeout time.Duration) *Gatekeeper {
	return &Gatekeeper{
		slot:    make(chan struct{}, 1),
		timeout: timeout,
	}
}

// Acquire takes the single slot, waiting up to the acquire timeout.
func (g *Gatekeeper) Acquire(ctx context.Context) error {
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrSlotTimeout
	}
}

// Release frees the slot. Safe to call at most once per successful Acquire;
// an unpaired call is a no-op.
func (g *Gatekeeper) Release() {
	select {
	case <-g.slot:
	default:
	}
}
