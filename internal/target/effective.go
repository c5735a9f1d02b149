package target

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Prober is the slice of the toolchain the effective-target machinery needs.
type Prober interface {
	// Triple returns the toolchain target triple (gcc -dumpmachine).
	Triple() string
	// CheckCompile reports whether the source snippet compiles with the
	// given extra flags.
	CheckCompile(ctx context.Context, source string, flags []string) (bool, error)
}

// probeSpec is a compile-to-check effective-target capability.
type probeSpec struct {
	source string
	flags  []string
}

// builtinProbes covers the effective targets the bundled testsuites use.
// A probe passes when its snippet compiles with the listed flags.
var builtinProbes = map[string]probeSpec{
	"arm_neon_ok": {
		source: "#ifndef __ARM_NEON__\n#error no NEON\n#endif\nint dummy;\n",
		flags:  []string{"-mfpu=neon", "-mfloat-abi=softfp"},
	},
	"lp64": {
		source: "int dummy[sizeof (void *) == 8 ? 1 : -1];\n",
	},
	"ilp32": {
		source: "int dummy[sizeof (void *) == 4 && sizeof (int) == 4 ? 1 : -1];\n",
	},
	"sse2": {
		source: "#ifndef __SSE2__\n#error no SSE2\n#endif\nint dummy;\n",
		flags:  []string{"-msse2"},
	},
	"avx2": {
		source: "#ifndef __AVX2__\n#error no AVX2\n#endif\nint dummy;\n",
		flags:  []string{"-mavx2"},
	},
	"fpic": {
		source: "#if !defined(__PIC__) && !defined(__pic__)\n#error no PIC\n#endif\nint dummy;\n",
		flags:  []string{"-fPIC"},
	},
	"pthread": {
		source: "#include <pthread.h>\nint dummy;\n",
		flags:  []string{"-pthread"},
	},
}

// Registry resolves effective-target names to cached probe results.
type Registry struct {
	prober Prober
	logger *slog.Logger

	mu     sync.Mutex
	cache  map[string]bool
	custom map[string]customProbe
	// ctx is the context of the Check call currently executing a custom
	// probe; check_compile reads it from here.
	ctx context.Context
}

// NewRegistry creates a registry bound to a prober.
func NewRegistry(prober Prober, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		prober: prober,
		logger: logger,
		cache:  make(map[string]bool),
		custom: make(map[string]customProbe),
	}
}

// Known reports whether name resolves to a builtin or user-defined probe.
func (r *Registry) Known(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[name]; ok {
		return true
	}
	_, ok := builtinProbes[name]
	return ok
}

// Names returns all known effective-target names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.names()
}

// Check resolves an effective-target name, probing the toolchain on first
// use and caching the answer for the rest of the run. User-defined probes
// shadow builtins of the same name.
func (r *Registry) Check(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ok, cached := r.cache[name]; cached {
		return ok, nil
	}

	var ok bool
	var err error
	switch {
	case r.custom[name] != nil:
		r.ctx = ctx
		ok, err = r.custom[name](ctx)
		r.ctx = nil
	default:
		spec, known := builtinProbes[name]
		if !known {
			return false, fmt.Errorf("unknown effective target %q (known: %s)", name, strings.Join(r.names(), ", "))
		}
		ok, err = r.prober.CheckCompile(ctx, spec.source, spec.flags)
	}
	if err != nil {
		return false, fmt.Errorf("effective target %q probe: %w", name, err)
	}

	r.logger.Debug("effective target probed", "name", name, "supported", ok)
	r.cache[name] = ok
	return ok, nil
}

// names is Names without locking, for use under r.mu.
func (r *Registry) names() []string {
	names := make([]string, 0, len(builtinProbes)+len(r.custom))
	for n := range builtinProbes {
		names = append(names, n)
	}
	for n := range r.custom {
		if _, dup := builtinProbes[n]; !dup {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
