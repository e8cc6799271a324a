// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package boundary provides the isolation boundary a relayed module lives in.
//
// A boundary is a dedicated goroutine that constructs and exclusively owns
// one container.Container. Callers hold a Handle; every Handle method is a
// synchronous request/response with that goroutine, so module code only
// ever runs on the boundary goroutine. The boundary has no implicit expiry:
// it lives until Handle.Close, which closes the container, unloads the
// module and stops the goroutine.
package boundary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/cmdrelay/internal/container"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

// Error codes for boundary calls.
const (
	CodeBoundaryClosed = "BOUNDARY_CLOSED"
	CodeBoundaryFault  = "BOUNDARY_FAULT"
)

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/holomush/cmdrelay/internal/boundary"

// Options configures a boundary.
type Options struct {
	// Tracer defaults to the global otel tracer provider.
	Tracer trace.Tracer
	Logger *slog.Logger
}

// request is one call executed on the boundary goroutine.
type request struct {
	ctx   context.Context
	op    string
	fn    func(context.Context, *container.Container) error
	reply chan error
}

// Handle is the caller-side proxy for a boundary.
//
// Handle is safe for concurrent use; calls are serialized.
type Handle struct {
	name   string
	tracer trace.Tracer
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	reqs   chan request
	done   chan struct{}
}

// New starts a boundary. newContainer runs on the boundary goroutine.
// Panics if newContainer is nil.
func New(newContainer func() *container.Container, opts Options) *Handle {
	if newContainer == nil {
		panic("boundary: container factory cannot be nil")
	}
	h := &Handle{
		name:   ulid.Make().String(),
		tracer: opts.Tracer,
		logger: opts.Logger,
		reqs:   make(chan request),
		done:   make(chan struct{}),
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer(tracerName)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	ready := make(chan struct{})
	go h.serve(newContainer, ready)
	<-ready

	h.logger.Debug("boundary created", "boundary", h.name)
	return h
}

// Name returns the boundary's unique name.
func (h *Handle) Name() string { return h.name }

// Done is closed once the boundary goroutine has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) serve(newContainer func() *container.Container, ready chan<- struct{}) {
	defer close(h.done)

	c := newContainer()
	close(ready)

	for req := range h.reqs {
		req.reply <- run(req, c)
	}
}

// run executes req, converting a panic into an error.
func run(req request, c *container.Container) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.In("boundary").
				Code(CodeBoundaryFault).
				With("operation", req.op).
				Errorf("%s panicked: %v", req.op, r)
		}
	}()
	return req.fn(req.ctx, c)
}

// call sends fn to the boundary goroutine and waits for it to finish.
func (h *Handle) call(ctx context.Context, op string, fn func(context.Context, *container.Container) error) error {
	ctx, span := h.tracer.Start(ctx, "boundary."+op,
		trace.WithAttributes(attribute.String("boundary", h.name)))
	defer span.End()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		err := oops.In("boundary").
			Code(CodeBoundaryClosed).
			With("boundary", h.name).
			With("operation", op).
			Errorf("boundary %s is closed", h.name)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := ctx.Err(); err != nil {
		return oops.In("boundary").With("operation", op).Wrap(err)
	}

	reply := make(chan error, 1)
	h.reqs <- request{ctx: ctx, op: op, fn: fn, reply: reply}
	err := <-reply
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// LoadModule loads the module at path into the boundary.
func (h *Handle) LoadModule(ctx context.Context, path string) error {
	return h.call(ctx, "LoadModule", func(ctx context.Context, c *container.Container) error {
		return c.LoadModule(ctx, path)
	})
}

// InitializePlugin initializes the module's extension plugin.
func (h *Handle) InitializePlugin(ctx context.Context) error {
	return h.call(ctx, "InitializePlugin", func(ctx context.Context, c *container.Container) error {
		return c.InitializePlugin(ctx)
	})
}

// UninitializePlugin uninitializes the module's extension plugin.
func (h *Handle) UninitializePlugin(ctx context.Context) error {
	return h.call(ctx, "UninitializePlugin", func(ctx context.Context, c *container.Container) error {
		return c.UninitializePlugin(ctx)
	})
}

// Invoke runs the module's command with encoded arguments. Command failures
// are reported inside the boundary; the error is only for boundary faults.
func (h *Handle) Invoke(ctx context.Context, name string, encoded []byte) error {
	return h.call(ctx, "Invoke", func(ctx context.Context, c *container.Container) error {
		c.Invoke(ctx, name, encoded)
		return nil
	})
}

// Redo redoes the current command.
func (h *Handle) Redo(ctx context.Context) error {
	return h.call(ctx, "Redo", func(ctx context.Context, c *container.Container) error {
		c.Redo(ctx)
		return nil
	})
}

// Undo undoes the current command.
func (h *Handle) Undo(ctx context.Context) error {
	return h.call(ctx, "Undo", func(ctx context.Context, c *container.Container) error {
		c.Undo(ctx)
		return nil
	})
}

// IsUndoable reports the container's cached undoability.
func (h *Handle) IsUndoable(ctx context.Context) (bool, error) {
	var undoable bool
	err := h.call(ctx, "IsUndoable", func(_ context.Context, c *container.Container) error {
		undoable = c.IsUndoable()
		return nil
	})
	return undoable, err
}

// Info returns a snapshot of the container state.
func (h *Handle) Info(ctx context.Context) (container.Info, error) {
	var info container.Info
	err := h.call(ctx, "Info", func(_ context.Context, c *container.Container) error {
		info = c.Info()
		return nil
	})
	return info, err
}

// Close closes the container and stops the boundary goroutine. Closing an
// already closed boundary is a no-op.
func (h *Handle) Close(ctx context.Context) error {
	err := h.call(context.WithoutCancel(ctx), "Close", func(ctx context.Context, c *container.Container) error {
		return c.Close(ctx)
	})
	if errutil.Code(err) == CodeBoundaryClosed {
		return nil
	}

	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.reqs)
	}
	h.mu.Unlock()
	<-h.done

	h.logger.Debug("boundary destroyed", "boundary", h.name)
	if err != nil {
		return oops.In("boundary").With("boundary", h.name).Wrap(err)
	}
	return nil
}

// String implements fmt.Stringer.
func (h *Handle) String() string {
	return fmt.Sprintf("boundary(%s)", h.name)
}
