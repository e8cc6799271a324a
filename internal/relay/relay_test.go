// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package relay_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/cmdrelay/internal/module"
	"github.com/holomush/cmdrelay/internal/relay"
	"github.com/holomush/cmdrelay/internal/resolver"
	"github.com/holomush/cmdrelay/pkg/args"
	"github.com/holomush/cmdrelay/pkg/command"
	"github.com/holomush/cmdrelay/pkg/command/commandtest"
	"github.com/holomush/cmdrelay/pkg/errutil"
)

type fooPlugin struct{}

func (fooPlugin) InitializePlugin(c command.Console) error {
	c.DisplayInfo("InitializePlugin")
	return nil
}

func (fooPlugin) UninitializePlugin(c command.Console) error {
	c.DisplayInfo("UninitializePlugin")
	return nil
}

type barCommand struct{}

func (barCommand) DoIt(c command.Console, l args.List) error {
	c.DisplayInfo("doIt " + l.String())
	c.SetResult(1.0)
	return nil
}

func (barCommand) RedoIt(c command.Console) error {
	c.DisplayInfo("redoIt")
	c.SetResult(1.0)
	return nil
}

func (barCommand) UndoIt(c command.Console) error {
	c.DisplayInfo("undoIt")
	return nil
}

func (barCommand) IsUndoable() bool { return true }

type queryCommand struct{}

func (queryCommand) DoIt(c command.Console, _ args.List) error {
	c.SetResult("query")
	return nil
}

func (queryCommand) UndoIt(c command.Console) error {
	c.DisplayInfo("undoIt")
	return nil
}

func (queryCommand) IsUndoable() bool { return false }

type fixture struct {
	console *commandtest.Console
	relay   *relay.Command
	dirs    []string
}

// newFixture lays out two search directories with Foo.nll.dll in the
// second, and Query.dll and Empty.dll in the first.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dirs := []string{t.TempDir(), t.TempDir()}
	touch(t, filepath.Join(dirs[1], "Foo.nll.dll"))
	touch(t, filepath.Join(dirs[0], "Query.dll"))
	touch(t, filepath.Join(dirs[0], "Empty.dll"))

	catalog := module.NewCatalog()
	catalog.Register("Foo.nll.dll", module.TypeOf(fooPlugin{}), module.TypeOf(barCommand{}))
	catalog.Register("Query.dll", module.TypeOf(queryCommand{}))
	catalog.Register("Empty.dll")

	searchPath := dirs[0] + string(os.PathListSeparator) + dirs[1]
	console := commandtest.NewConsole()
	r := relay.New(relay.Options{
		Resolver: resolver.New(resolver.Options{
			Extension: ".dll",
			Getenv: func(key string) string {
				if key == resolver.DefaultEnvVar {
					return searchPath
				}
				return ""
			},
		}),
		Loader:  catalog,
		Console: console,
	})
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return &fixture{console: console, relay: r, dirs: dirs}
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestRelay_LoadInvokeUnload(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Foo"))
	assert.Equal(t, "Foo", f.console.Result())
	assert.True(t, f.relay.Loaded())
	assert.True(t, f.console.HasInfo("InitializePlugin"))

	require.NoError(t, f.relay.Invoke(ctx, "bar", args.List{}))
	assert.Equal(t, 1.0, f.console.Result())

	require.NoError(t, f.relay.Unload(ctx))
	assert.Equal(t, "Foo", f.console.Result())
	assert.False(t, f.relay.Loaded())
	assert.True(t, f.console.HasInfo("UninitializePlugin"))
	assert.Empty(t, f.console.Errors())
}

func TestRelay_LoadTwice(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Foo"))
	first := f.relay.Boundary()

	require.NoError(t, f.relay.Load(ctx, "Foo"))
	assert.Equal(t, "", f.console.Result())
	assert.True(t, f.console.HasInfo("Foo is already loaded"))
	assert.Same(t, first, f.relay.Boundary(), "second load keeps the boundary")
}

func TestRelay_UnloadTwice(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Foo"))
	require.NoError(t, f.relay.Unload(ctx))
	require.NoError(t, f.relay.Unload(ctx))
	assert.Equal(t, "", f.console.Result())
	assert.True(t, f.console.HasInfo("the plugin is already unloaded"))
}

func TestRelay_ShortName(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Foo.nll"))
	assert.Equal(t, "Foo", f.console.Result())
	assert.Equal(t, "Foo", f.relay.Name())
}

func TestRelay_OperationsBeforeLoad(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	err := f.relay.Invoke(ctx, "bar", nil)
	errutil.AssertErrorCode(t, err, relay.CodeInvokeBeforeLoad)
	assert.EqualError(t, err, "the plugin contains bar is already unloaded")

	err = f.relay.UndoIt(ctx)
	errutil.AssertErrorCode(t, err, relay.CodeInvokeBeforeLoad)
	assert.EqualError(t, err, "cannot call undoIt() before load")

	err = f.relay.RedoIt(ctx)
	errutil.AssertErrorCode(t, err, relay.CodeInvokeBeforeLoad)
	assert.EqualError(t, err, "cannot call redoIt() before load")

	assert.False(t, f.relay.Loaded())
	assert.Equal(t, 0, f.console.ResultCount())
}

func TestRelay_ResolutionFailureRollsBack(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	err := f.relay.Load(ctx, "Missing")
	errutil.AssertErrorCode(t, err, resolver.CodeModuleNotFound)
	assert.Contains(t, err.Error(), "Missing is not found in $"+resolver.DefaultEnvVar)
	assert.Equal(t, "", f.console.Result())
	assert.False(t, f.relay.Loaded())
	assert.Nil(t, f.relay.Boundary())

	require.NoError(t, f.relay.Load(ctx, "Foo"), "relay stays usable")
	assert.Equal(t, "Foo", f.console.Result())
}

func TestRelay_LoadFailureKeepsBoundary(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)
	touch(t, filepath.Join(f.dirs[0], "Broken.dll"))

	err := f.relay.Load(ctx, "Broken")
	errutil.AssertErrorCode(t, err, module.CodeLoadFailure)
	assert.True(t, f.relay.Loaded(), "the caller must still unload")
	assert.Equal(t, "", f.console.Result())

	require.NoError(t, f.relay.Unload(ctx))
	assert.Equal(t, "Broken", f.console.Result())
	assert.False(t, f.relay.Loaded())
}

func TestRelay_DeclaredUndoable(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.relay.DeclaredUndoable(), "declared before any load")
	assert.True(t, f.relay.NewInvocation().IsUndoable())
}

func TestRelay_UndoRedo(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Foo"))
	require.NoError(t, f.relay.Invoke(ctx, "bar", args.List{args.Int(3)}))
	assert.True(t, f.console.HasInfo("doIt 3"))

	require.NoError(t, f.relay.UndoIt(ctx))
	assert.True(t, f.console.HasInfo("undoIt"))

	f.console.Reset()
	require.NoError(t, f.relay.RedoIt(ctx))
	assert.Equal(t, []string{"redoIt"}, f.console.Infos())
	assert.Equal(t, 1.0, f.console.Result())
}

func TestRelay_InvokeRejectsZeroValue(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Foo"))
	f.console.Reset()

	err := f.relay.Invoke(ctx, "bar", args.List{args.Int(1), {}})
	errutil.AssertErrorCode(t, err, args.CodeInvalidArgument)
	assert.Empty(t, f.console.Infos(), "nothing is forwarded")
	assert.True(t, f.relay.Loaded())
}

func TestRelay_UndoNotUndoableIsSilent(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Query"))
	require.NoError(t, f.relay.Invoke(ctx, "query", nil))
	assert.Equal(t, "query", f.console.Result())

	f.console.Reset()
	require.NoError(t, f.relay.UndoIt(ctx))
	assert.Empty(t, f.console.Infos(), "undo is not forwarded")
	assert.Empty(t, f.console.Errors())
}

func TestRelay_Info(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Info(ctx))
	assert.True(t, f.console.HasInfo("no plugin is loaded"))
	assert.Equal(t, "", f.console.Result())

	require.NoError(t, f.relay.Load(ctx, "Foo"))
	require.NoError(t, f.relay.Invoke(ctx, "bar", nil))
	f.console.Reset()

	require.NoError(t, f.relay.Info(ctx))
	assert.Equal(t, "Foo", f.console.Result())
	assert.True(t, f.console.HasInfo("boundary: "+f.relay.Boundary().Name()))
	assert.True(t, f.console.HasInfo("plugin: fooPlugin (active)"))
	assert.True(t, f.console.HasInfo("command: barCommand"))
}

func TestRelay_DoItFlags(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)
	s := args.String

	require.NoError(t, f.relay.DoIt(ctx, args.List{s("-ld"), s("Foo")}))
	assert.Equal(t, "Foo", f.console.Result())

	require.NoError(t, f.relay.DoIt(ctx, args.List{s("-doIt"), s("bar"), args.Float(2.5), args.Bool(true)}))
	assert.Equal(t, 1.0, f.console.Result())
	assert.True(t, f.console.HasInfo("doIt 2.5 true"))

	require.NoError(t, f.relay.DoIt(ctx, args.List{s("-i")}))
	assert.Equal(t, "Foo", f.console.Result())

	require.NoError(t, f.relay.DoIt(ctx, args.List{s("-unload")}))
	assert.Equal(t, "Foo", f.console.Result())
	assert.False(t, f.relay.Loaded())
}

func TestRelay_DoItRequiresFlag(t *testing.T) {
	f := newFixture(t)

	for _, l := range []args.List{
		nil,
		{args.String("-bogus")},
		{args.Int(1)},
	} {
		err := f.relay.DoIt(context.Background(), l)
		errutil.AssertErrorCode(t, err, relay.CodeInvalidFlags)
		assert.EqualError(t, err, "must assign flag '-ld/load' or '-uld/unload' or '-cmd/command_name'")
	}
}

func TestRelay_ModuleWithoutCommand(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.relay.Load(ctx, "Empty"))
	assert.Equal(t, "Empty", f.console.Result(), "a module without a plugin type loads")

	require.NoError(t, f.relay.Invoke(ctx, "anything", nil))
	assert.True(t, f.console.HasError("declares no Command type"))

	f.console.Reset()
	require.NoError(t, f.relay.UndoIt(ctx), "a failed invoke is not undoable")
	assert.Empty(t, f.console.Infos())
}
