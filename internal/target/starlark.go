package target

import (
	"context"
	"fmt"
	"strings"

	"go.starlark.net/starlark"
)

// customProbe is a user-defined effective-target check.
type customProbe func(ctx context.Context) (bool, error)

// LoadStarlark loads user-defined effective-target probes from a Starlark
// file. Every top-level function whose name does not start with an
// underscore becomes a probe; it is called with no arguments and its return
// value's truth decides the capability.
//
// The script sees two predeclared names:
//
//	target                   the toolchain triple, as a string
//	check_compile(src, flags) compile a snippet, returns True on success
func (r *Registry) LoadStarlark(path string) error {
	predeclared := starlark.StringDict{
		"target":        starlark.String(r.prober.Triple()),
		"check_compile": starlark.NewBuiltin("check_compile", r.checkCompileBuiltin),
	}

	thread := &starlark.Thread{
		Name: "targets",
		Print: func(_ *starlark.Thread, msg string) {
			r.logger.Info("targets.star", "msg", msg)
		},
	}

	globals, err := starlark.ExecFile(thread, path, nil, predeclared)
	if err != nil {
		return fmt.Errorf("failed to load target probes from %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, value := range globals {
		fn, ok := value.(starlark.Callable)
		if !ok || strings.HasPrefix(name, "_") {
			continue
		}
		r.custom[name] = r.starlarkProbe(path, fn)
		r.logger.Debug("registered custom effective target", "name", name, "file", path)
	}
	return nil
}

// starlarkProbe wraps a Starlark callable as a customProbe.
func (r *Registry) starlarkProbe(path string, fn starlark.Callable) customProbe {
	return func(_ context.Context) (bool, error) {
		thread := &starlark.Thread{
			Name: fn.Name(),
			Print: func(_ *starlark.Thread, msg string) {
				r.logger.Info("targets.star", "msg", msg)
			},
		}
		v, err := starlark.Call(thread, fn, nil, nil)
		if err != nil {
			return false, fmt.Errorf("%s: %s: %w", path, fn.Name(), err)
		}
		return bool(v.Truth()), nil
	}
}

// checkCompileBuiltin implements check_compile(source, flags=[]) for probe
// scripts. It runs on the goroutine holding the registry lock during Check,
// so it must not take r.mu itself.
func (r *Registry) checkCompileBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var source string
	var flagsList *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "source", &source, "flags?", &flagsList); err != nil {
		return nil, err
	}

	var flags []string
	if flagsList != nil {
		it := flagsList.Iterate()
		defer it.Done()
		var v starlark.Value
		for it.Next(&v) {
			s, ok := starlark.AsString(v)
			if !ok {
				return nil, fmt.Errorf("%s: flags must be strings, got %s", b.Name(), v.Type())
			}
			flags = append(flags, s)
		}
	}

	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ok, err := r.prober.CheckCompile(ctx, source, flags)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(ok), nil
}
