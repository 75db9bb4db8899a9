// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	chaoslog "github.com/DataDog/chaos-seal/log"
	"github.com/DataDog/chaos-seal/o11y/tags"
	"github.com/DataDog/chaos-seal/policy"
)

var (
	// ErrAlreadyRunning is returned when starting a running worker
	ErrAlreadyRunning = errors.New("the engine is already running")
	// ErrNotRunning is returned when stopping a worker which isn't running
	ErrNotRunning = errors.New("the engine is not running")
)

// Work is run by the worker until it returns or its context is done.
// It reads the policy through the given source, so that updates apply to its next pass.
type Work func(ctx context.Context, source policy.Source) error

// Handle supervises a single background worker.
// One mutex guards the policy, the worker and the log ring. Work runs without holding it.
type Handle struct {
	mu      sync.Mutex
	policy  *policy.Policy
	logs    *chaoslog.Ring
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	lastErr error

	work Work
	log  *zap.SugaredLogger
}

// New returns a stopped handle. Its log ring keeps ringSize lines.
func New(p *policy.Policy, work Work, ringSize int) *Handle {
	return &Handle{
		policy: p,
		logs:   chaoslog.NewRing(ringSize),
		work:   work,
		log:    zap.NewNop().Sugar(),
	}
}

// SetLogger sets the logger used for the worker lifecycle
func (h *Handle) SetLogger(log *zap.SugaredLogger) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.log = log
}

// Start spawns the worker
func (h *Handle) Start() error {
	h.mu.Lock()

	if h.running {
		h.mu.Unlock()

		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())

	h.cancel = cancel
	h.done = make(chan struct{})
	h.running = true
	h.lastErr = nil
	log, done := h.log, h.done

	h.mu.Unlock()

	// the logger may write to the ring, it is never called with the lock held
	log.Info("engine started")

	go h.run(ctx, done)

	return nil
}

// Stop asks the worker to stop. It returns right away: the worker stops before its next scenario.
func (h *Handle) Stop() error {
	_, err := h.requestStop()

	return err
}

// StopAndWait stops the worker and waits for it to return, or for ctx to be done.
// It returns nil right away when the worker isn't running.
func (h *Handle) StopAndWait(ctx context.Context) error {
	done, err := h.requestStop()
	if errors.Is(err, ErrNotRunning) {
		return nil
	}

	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestStop cancels the running worker and returns the channel closed when it returns
func (h *Handle) requestStop() (<-chan struct{}, error) {
	h.mu.Lock()

	if !h.running {
		h.mu.Unlock()

		return nil, ErrNotRunning
	}

	h.cancel()
	log, done := h.log, h.done

	h.mu.Unlock()

	log.Info("engine stop requested")

	return done, nil
}

// IsRunning returns true until the worker has returned
func (h *Handle) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.running
}

// Done returns a channel closed when the current worker returns, nil when it never started
func (h *Handle) Done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.done
}

// Err returns the error the last worker returned with
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.lastErr
}

// run executes the work, turning a panic into a stop
func (h *Handle) run(ctx context.Context, done chan struct{}) {
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker crashed: %v", r)
		}

		// a worker interrupted by a stop request exits cleanly
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			err = nil
		}

		h.mu.Lock()
		h.cancel()
		h.running = false
		h.lastErr = err
		log := h.log
		h.mu.Unlock()

		if err != nil {
			log.Errorw("engine stopped", tags.ErrorKey, err)
		} else {
			log.Info("engine stopped")
		}

		close(done)
	}()

	err = h.work(ctx, h)
}

// Read implements policy.Source with the current policy
func (h *Handle) Read() (*policy.Policy, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.policy == nil {
		return nil, errors.New("no policy loaded")
	}

	return h.policy, nil
}

// Policy returns the current policy
func (h *Handle) Policy() *policy.Policy {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.policy
}

// SetPolicy replaces the policy, the worker picking it up on its next pass
func (h *Handle) SetPolicy(p *policy.Policy) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.policy = p
}

// Write appends log lines to the ring, so that the handle can back a zap sink
func (h *Handle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logs.Append(string(p))

	return len(p), nil
}

// Sync implements zapcore.WriteSyncer
func (h *Handle) Sync() error {
	return nil
}

// Logs returns the lines logged at or after the offset, and the offset to read from next
func (h *Handle) Logs(offset int) ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.logs.Since(offset)
}
