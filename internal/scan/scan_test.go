package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compilertools/dgcheck/internal/directive"
)

const neonAsm = `	.text
f1:
	vld1.32	{q8}, [r1]!
	vshl.i32	q8, q8, #3
	vst1.32	{q8}, [r2]!
	bx	lr
`

const shAsm = `	.text
test_func_00:
	fmov.s	@r4+,fr1
	fadd	fr1,fr0
	bf	.L3
	rts
`

func TestCompile_DotMatchesNewline(t *testing.T) {
	// Tcl regexps match newlines with `.`; the vshl pattern relies on it
	// when the shift operand lands on a later line.
	re, err := Compile(`vshl\.i32.*#3`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("vshl.i32\tq8, q8, #3"))
	assert.True(t, re.MatchString("vshl.i32\tq8, q8, #1\n\tfoo #3"))
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`vshl\.i32(`)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		check  directive.FinalCheck
		asm    string
		ok     bool
		detail string
	}{
		{
			name:  "scan-assembler match",
			check: directive.FinalCheck{Kind: directive.ScanAssembler, Pattern: `vshl\.i32.*#3`},
			asm:   neonAsm,
			ok:    true,
		},
		{
			name:   "scan-assembler miss",
			check:  directive.FinalCheck{Kind: directive.ScanAssembler, Pattern: `vshr\.s32`},
			asm:    neonAsm,
			ok:     false,
			detail: `scan-assembler vshr\.s32: pattern not found`,
		},
		{
			name:  "scan-assembler-times exact",
			check: directive.FinalCheck{Kind: directive.ScanAssemblerTimes, Pattern: "fmov.s\t@r[0-9]+\\+,fr[0-9]+", Count: 1},
			asm:   shAsm,
			ok:    true,
		},
		{
			name:   "scan-assembler-times wrong count",
			check:  directive.FinalCheck{Kind: directive.ScanAssemblerTimes, Pattern: `fr[0-9]+`, Count: 1},
			asm:    shAsm,
			ok:     false,
			detail: `scan-assembler-times fr[0-9]+: found 3 time(s), expected 1`,
		},
		{
			name:  "scan-assembler-not clean",
			check: directive.FinalCheck{Kind: directive.ScanAssemblerNot, Pattern: `bl\tmemcpy`},
			asm:   neonAsm,
			ok:    true,
		},
		{
			name:   "scan-assembler-not found",
			check:  directive.FinalCheck{Kind: directive.ScanAssemblerNot, Pattern: `vshl`},
			asm:    neonAsm,
			ok:     false,
			detail: "scan-assembler-not vshl: pattern found 1 time(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Evaluate(tt.check, tt.asm)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, outcome.Ok)
			assert.Equal(t, tt.detail, outcome.Detail)
		})
	}
}

func TestEvaluate_InvalidPattern(t *testing.T) {
	_, err := Evaluate(directive.FinalCheck{Kind: directive.ScanAssembler, Pattern: "("}, "")
	assert.Error(t, err)
}

func TestCount_NonOverlapping(t *testing.T) {
	re, err := Compile("aa")
	require.NoError(t, err)
	assert.Equal(t, 2, Count(re, "aaaa"))
}
