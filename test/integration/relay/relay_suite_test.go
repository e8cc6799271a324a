// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package relay_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"go.opentelemetry.io/otel"

	"github.com/holomush/cmdrelay/internal/host"
	"github.com/holomush/cmdrelay/internal/module/lua"
	"github.com/holomush/cmdrelay/internal/relay"
	"github.com/holomush/cmdrelay/internal/resolver"
)

func TestRelay(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Relay Integration Suite")
}

// testEnv is a host engine with the relay registered against the sample
// modules directory.
type testEnv struct {
	ctx    context.Context
	out    *bytes.Buffer
	engine *host.Engine
	relay  *relay.Command
}

func newTestEnv() *testEnv {
	modules, err := filepath.Abs(filepath.Join("..", "..", "..", "modules"))
	Expect(err).NotTo(HaveOccurred())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	out := &bytes.Buffer{}
	console := host.NewConsole(out, logger)
	engine := host.New(host.Options{Console: console, Logger: logger})

	r := relay.New(relay.Options{
		Resolver: resolver.New(resolver.Options{
			Getenv: func(string) string { return modules },
		}),
		Loader:  lua.NewLoader(),
		Console: console,
		Tracer:  otel.Tracer("github.com/holomush/cmdrelay/test"),
		Logger:  logger,
	})
	Expect(engine.Register("relay", func() host.Command { return r.NewInvocation() })).To(Succeed())

	return &testEnv{ctx: context.Background(), out: out, engine: engine, relay: r}
}

// exec runs line and returns what it printed.
func (e *testEnv) exec(line string) (string, error) {
	e.out.Reset()
	err := e.engine.Execute(e.ctx, line)
	return e.out.String(), err
}

func (e *testEnv) cleanup() {
	Expect(e.relay.Close(e.ctx)).To(Succeed())
}
