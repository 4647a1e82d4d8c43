package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironmentExists(t *testing.T) {
	t.Parallel()

	env := FromSlice([]string{})

	env.Set("FOO", "bar")
	env.Set("EMPTY", "")

	assert.Equal(t, env.Exists("FOO"), true)
	assert.Equal(t, env.Exists("EMPTY"), true)
	assert.Equal(t, env.Exists("does not exist"), false)
}

func TestEnvironmentSet(t *testing.T) {
	t.Parallel()

	env := FromSlice([]string{})

	env.Set("    THIS_IS_THE_BEST   \n\n", "\"IT SURE IS\"\n\n")

	v, ok := env.Get("    THIS_IS_THE_BEST   \n\n")
	assert.Equal(t, v, "\"IT SURE IS\"\n\n")
	assert.True(t, ok)
}

func TestEnvironmentSetDefault(t *testing.T) {
	t.Parallel()

	env := FromSlice([]string{"PROPTEST_CASES=256"})

	assert.Equal(t, env.SetDefault("PROPTEST_CASES", "10"), "256")
	assert.Equal(t, env.SetDefault("UNSET_VAR", "10"), "10")

	v, _ := env.Get("PROPTEST_CASES")
	assert.Equal(t, v, "256")

	v, _ = env.Get("UNSET_VAR")
	assert.Equal(t, v, "10")
}

func TestEnvironmentPrepend(t *testing.T) {
	t.Parallel()

	env := FromSlice([]string{"MIRIFLAGS=-Zmiri-ignore-leaks"})

	env.Prepend("MIRIFLAGS", "-Zmiri-strict-provenance", "-Zmiri-disable-isolation")
	env.Prepend("RUSTFLAGS", "-Zrandomize-layout")

	v, _ := env.Get("MIRIFLAGS")
	assert.Equal(t, v, "-Zmiri-strict-provenance -Zmiri-disable-isolation -Zmiri-ignore-leaks")

	v, _ = env.Get("RUSTFLAGS")
	assert.Equal(t, v, "-Zrandomize-layout")
}

func TestEnvironmentPrependPreservesEmptyValue(t *testing.T) {
	t.Parallel()

	env := FromSlice([]string{"RUSTFLAGS="})
	env.Set("RUSTFLAGS", "")

	env.Prepend("RUSTFLAGS", "-Zrandomize-layout")

	v, _ := env.Get("RUSTFLAGS")
	assert.Equal(t, v, "-Zrandomize-layout")
}

func TestEnvironmentMerge(t *testing.T) {
	t.Parallel()

	env1 := FromSlice([]string{"FOO=bar"})
	env2 := FromSlice([]string{"BAR=foo"})

	env1.Merge(env2)

	assert.Equal(t, env1.ToSlice(), []string{"BAR=foo", "FOO=bar"})
}

func TestEnvironmentCopy(t *testing.T) {
	t.Parallel()

	env1 := FromSlice([]string{"FOO=bar"})
	env2 := env1.Copy()

	assert.Equal(t, env2.ToSlice(), []string{"FOO=bar"})

	env1.Set("FOO", "not-bar-anymore")

	assert.Equal(t, env2.ToSlice(), []string{"FOO=bar"})
}

func TestEnvironmentToSlice(t *testing.T) {
	t.Parallel()

	env := FromSlice([]string{"THIS_IS_GREAT=totes", "ZOMG=greatness"})

	assert.Equal(t, env.ToSlice(), []string{"THIS_IS_GREAT=totes", "ZOMG=greatness"})
}

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		name  string
		value string
		ok    bool
	}{
		{input: "MIRIFLAGS=-Zmiri-strict-provenance", name: "MIRIFLAGS", value: "-Zmiri-strict-provenance", ok: true},
		{input: "EMPTY=", name: "EMPTY", value: "", ok: true},
		{input: "VALUE_WITH_EQUALS=1+1=2", name: "VALUE_WITH_EQUALS", value: "1+1=2", ok: true},
		{input: "=weird-windows-thing", ok: false},
		{input: "no-equals-at-all", ok: false},
	}

	for _, test := range tests {
		name, value, ok := Split(test.input)
		assert.Equal(t, test.name, name, "input %q", test.input)
		assert.Equal(t, test.value, value, "input %q", test.input)
		assert.Equal(t, test.ok, ok, "input %q", test.input)
	}
}
