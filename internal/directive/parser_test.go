package directive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const neonTest = `/* { dg-do compile } */
/* { dg-require-effective-target arm_neon_ok } */
/* { dg-options "-O2 -mfpu=neon -mfloat-abi=softfp -ftree-vectorize" } */
/* { dg-final { scan-assembler "vshl\.i32.*#3" } } */

/* Verify that VSHR immediate is used.  */
void f1(int n, int x[], int y[]) {
  int i;
  for (i = 0; i < n; ++i)
    y[i] = x[i] << 3;
}
`

const postincTest = `/* PR target/50749: Verify that post-increment addressing is generated
   inside a loop.  */
/* { dg-do compile }  */
/* { dg-options "-O2" } */
/* { dg-skip-if "" { "sh*-*-*" } { "-m1" "-m2" "-m3" "-m4al" "*nofpu" "-m4-340*" "-m4-400*" "-m4-500*" "-m5*" } { "" } }  */
/* { dg-final { scan-assembler-times "fmov.s\t@r\[0-9]\+\\+,fr\[0-9]\+" 1 } } */

float
test_func_00 (float* p, int c)
{
  float r = 0;
  do
  {
    r += *p++;
  } while (--c);
  return r;
}
`

func TestParse_NeonVectorizeTest(t *testing.T) {
	plan, err := Parse("neon-vshl-imm-1.c", neonTest)
	require.NoError(t, err)

	assert.Equal(t, ActionCompile, plan.Action)
	assert.Empty(t, plan.ActionSelector)
	assert.Equal(t, []string{"arm_neon_ok"}, plan.RequiredTargets)

	require.True(t, plan.HasOptions)
	assert.Equal(t, []string{"-O2", "-mfpu=neon", "-mfloat-abi=softfp", "-ftree-vectorize"}, plan.Options)

	require.Len(t, plan.Finals, 1)
	assert.Equal(t, ScanAssembler, plan.Finals[0].Kind)
	// Quote substitution turns \. into a bare dot; the resulting regexp still
	// matches the literal dot in the mnemonic.
	assert.Equal(t, "vshl.i32.*#3", plan.Finals[0].Pattern)
	assert.Equal(t, 4, plan.Finals[0].Line)
}

func TestParse_PostIncrementTest(t *testing.T) {
	plan, err := Parse("pr50749-sf-postinc-3.c", postincTest)
	require.NoError(t, err)

	assert.Equal(t, ActionCompile, plan.Action)
	require.True(t, plan.HasOptions)
	assert.Equal(t, []string{"-O2"}, plan.Options)

	require.Len(t, plan.SkipIfs, 1)
	skip := plan.SkipIfs[0]
	assert.Equal(t, "", skip.Comment)
	assert.Equal(t, []string{"sh*-*-*"}, skip.Selectors)
	assert.Equal(t, []string{"-m1", "-m2", "-m3", "-m4al", "*nofpu", "-m4-340*", "-m4-400*", "-m4-500*", "-m5*"}, skip.IncludeOpts)
	assert.Equal(t, []string{""}, skip.ExcludeOpts)

	require.Len(t, plan.Finals, 1)
	final := plan.Finals[0]
	assert.Equal(t, ScanAssemblerTimes, final.Kind)
	// Tcl quote processing: \t is a tab, \[ and \+ drop the backslash, and
	// \\+ keeps an escaped plus for the regexp engine.
	assert.Equal(t, "fmov.s\t@r[0-9]+\\+,fr[0-9]+", final.Pattern)
	assert.Equal(t, 1, final.Count)
}

func TestParse_Defaults(t *testing.T) {
	plan, err := Parse("plain.c", "int main(void) { return 0; }\n")
	require.NoError(t, err)

	assert.Equal(t, ActionCompile, plan.Action)
	assert.False(t, plan.HasOptions)
	assert.Empty(t, plan.Finals)
	assert.Zero(t, plan.Timeout)
}

func TestParse_DoWithTargetSelector(t *testing.T) {
	plan, err := Parse("t.c", `/* { dg-do run { target arm*-*-* aarch64*-*-* } } */`+"\n")
	require.NoError(t, err)

	assert.Equal(t, ActionRun, plan.Action)
	assert.Equal(t, []string{"arm*-*-*", "aarch64*-*-*"}, plan.ActionSelector)
}

func TestParse_SkipIfDefaults(t *testing.T) {
	plan, err := Parse("t.c", `/* { dg-skip-if "needs hw div" { arm*-*-* } } */`+"\n")
	require.NoError(t, err)

	require.Len(t, plan.SkipIfs, 1)
	skip := plan.SkipIfs[0]
	assert.Equal(t, "needs hw div", skip.Comment)
	assert.Equal(t, []string{"*"}, skip.IncludeOpts)
	assert.Nil(t, skip.ExcludeOpts)
}

func TestParse_AdditionalOptionsAccumulate(t *testing.T) {
	content := `/* { dg-additional-options "-fno-inline" } */
/* { dg-additional-options "-fomit-frame-pointer" } */
`
	plan, err := Parse("t.c", content)
	require.NoError(t, err)

	assert.False(t, plan.HasOptions)
	assert.Equal(t, []string{"-fno-inline", "-fomit-frame-pointer"}, plan.AdditionalOptions)
}

func TestParse_Timeout(t *testing.T) {
	plan, err := Parse("t.c", `/* { dg-timeout 30 } */`+"\n")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, plan.Timeout)
}

func TestParse_BracedPatternVerbatim(t *testing.T) {
	plan, err := Parse("t.c", "/* { dg-final { scan-assembler {mov } } } */\n")
	require.NoError(t, err)

	require.Len(t, plan.Finals, 1)
	// Brace quoting is verbatim, so the trailing space is part of the pattern.
	assert.Equal(t, "mov ", plan.Finals[0].Pattern)
}

func TestParse_ScanAssemblerNot(t *testing.T) {
	plan, err := Parse("t.c", `/* { dg-final { scan-assembler-not "bl\tmemcpy" } } */`+"\n")
	require.NoError(t, err)

	require.Len(t, plan.Finals, 1)
	assert.Equal(t, ScanAssemblerNot, plan.Finals[0].Kind)
	assert.Equal(t, "bl\tmemcpy", plan.Finals[0].Pattern)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate dg-do", "/* { dg-do compile } */\n/* { dg-do run } */\n"},
		{"duplicate dg-options", `/* { dg-options "-O1" } */` + "\n" + `/* { dg-options "-O2" } */` + "\n"},
		{"unknown action", "/* { dg-do fly } */\n"},
		{"unterminated directive", "/* { dg-do compile */\n"},
		{"bad timeout", "/* { dg-timeout zero } */\n"},
		{"bad times count", `/* { dg-final { scan-assembler-times "x" many } } */` + "\n"},
		{"unsupported final check", `/* { dg-final { scan-tree-dump "x" "vect" } } */` + "\n"},
		{"effective target arity", "/* { dg-require-effective-target } */\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("t.c", tt.content)
			assert.Error(t, err)
		})
	}
}

func TestParse_UnknownDirective(t *testing.T) {
	_, err := Parse("t.c", "/* { dg-frobnicate } */\n")
	require.Error(t, err)

	var unknown *UnknownDirectiveError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "dg-frobnicate", unknown.Directive)
	assert.Equal(t, 1, unknown.Line)
}

func TestParse_ErrorPositions(t *testing.T) {
	content := "int x;\n/* { dg-do compile } */\n/* { dg-do run } */\n"
	_, err := Parse("dup.c", content)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "dup.c", perr.File)
	assert.Equal(t, 3, perr.Line)
}
