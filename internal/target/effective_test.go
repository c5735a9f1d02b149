package target

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compilertools/dgcheck/internal/testutil"
)

// fakeProber answers compile probes from a flag allowlist and counts calls.
type fakeProber struct {
	triple string
	accept func(source string, flags []string) bool
	calls  int
}

func (p *fakeProber) Triple() string { return p.triple }

func (p *fakeProber) CheckCompile(_ context.Context, source string, flags []string) (bool, error) {
	p.calls++
	if p.accept == nil {
		return true, nil
	}
	return p.accept(source, flags), nil
}

type errorProber struct{ fakeProber }

func (p *errorProber) CheckCompile(context.Context, string, []string) (bool, error) {
	return false, fmt.Errorf("compiler crashed")
}

func TestRegistry_CheckBuiltin(t *testing.T) {
	prober := &fakeProber{
		triple: "arm-none-eabi",
		accept: func(_ string, flags []string) bool {
			// Only the NEON flag combination succeeds.
			return len(flags) == 2 && flags[0] == "-mfpu=neon"
		},
	}
	r := NewRegistry(prober, testutil.NewTestLogger(t))

	ok, err := r.Check(context.Background(), "arm_neon_ok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Check(context.Background(), "sse2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_CheckCaches(t *testing.T) {
	prober := &fakeProber{triple: "x86_64-pc-linux-gnu"}
	r := NewRegistry(prober, nil)

	for i := 0; i < 3; i++ {
		ok, err := r.Check(context.Background(), "lp64")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, prober.calls)
}

func TestRegistry_CheckUnknown(t *testing.T) {
	r := NewRegistry(&fakeProber{triple: "x86_64-pc-linux-gnu"}, nil)

	_, err := r.Check(context.Background(), "quantum_ok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown effective target")
	assert.Contains(t, err.Error(), "arm_neon_ok")
}

func TestRegistry_ProbeError(t *testing.T) {
	r := NewRegistry(&errorProber{fakeProber{triple: "x"}}, nil)

	_, err := r.Check(context.Background(), "lp64")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler crashed")
}

func TestRegistry_Known(t *testing.T) {
	r := NewRegistry(&fakeProber{triple: "x"}, nil)
	assert.True(t, r.Known("arm_neon_ok"))
	assert.False(t, r.Known("hard_float"))
}

func TestRegistry_LoadStarlark(t *testing.T) {
	script := `
def little_endian_arm():
    return target.startswith("arm")

def hard_float():
    return check_compile("int x;", ["-mfloat-abi=hard"])

def _helper():
    return True
`
	path := filepath.Join(t.TempDir(), "targets.star")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	prober := &fakeProber{
		triple: "arm-none-eabi",
		accept: func(_ string, flags []string) bool {
			return len(flags) == 1 && flags[0] == "-mfloat-abi=hard"
		},
	}
	r := NewRegistry(prober, testutil.NewTestLogger(t))
	require.NoError(t, r.LoadStarlark(path))

	assert.True(t, r.Known("little_endian_arm"))
	assert.True(t, r.Known("hard_float"))
	assert.False(t, r.Known("_helper"))

	ok, err := r.Check(context.Background(), "little_endian_arm")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Check(context.Background(), "hard_float")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistry_LoadStarlarkError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.star")
	require.NoError(t, os.WriteFile(path, []byte("def broken(:\n"), 0o644))

	r := NewRegistry(&fakeProber{triple: "x"}, nil)
	err := r.LoadStarlark(path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "targets.star"))
}

func TestRegistry_StarlarkProbeFailure(t *testing.T) {
	script := "def explodes():\n    fail(\"no such capability\")\n"
	path := filepath.Join(t.TempDir(), "targets.star")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	r := NewRegistry(&fakeProber{triple: "x"}, nil)
	require.NoError(t, r.LoadStarlark(path))

	_, err := r.Check(context.Background(), "explodes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explodes")
}
