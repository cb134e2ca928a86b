package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privaxis/doublefetch/pkg/common"
	"github.com/privaxis/doublefetch/pkg/pattern"
)

func step(name string, args ...interface{}) pattern.TransformStep {
	return pattern.TransformStep{Name: name, Args: args}
}

func TestRegistry_Run_AppliesChainInOrder(t *testing.T) {
	r := New()
	out, err := r.Run("  Hello World  ", []pattern.TransformStep{
		step("trim"),
		step("lower"),
		step("substring", 0, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRegistry_Run_NilShortCircuitsBeforeLookup(t *testing.T) {
	r := New()
	out, err := r.Run(nil, []pattern.TransformStep{
		step("doesNotExist"),
	})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRegistry_Run_UnknownTransformIsPermanentError(t *testing.T) {
	r := New()
	_, err := r.Run("value", []pattern.TransformStep{step("notRegistered")})
	require.Error(t, err)
	assert.True(t, common.IsPermanent(err))
}

func TestRegistry_Run_MidChainNilStopsFurtherSteps(t *testing.T) {
	r := New()
	r.Register("toNil", func(interface{}, []interface{}) (interface{}, error) {
		return nil, nil
	})
	r.Register("explode", func(interface{}, []interface{}) (interface{}, error) {
		t.Fatal("should not run after a mid-chain nil")
		return nil, nil
	})
	out, err := r.Run("value", []pattern.TransformStep{step("toNil"), step("explode")})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestBuiltin_Base64RoundTrip(t *testing.T) {
	r := New()
	encoded, err := r.Run("hello", []pattern.TransformStep{step("base64encode")})
	require.NoError(t, err)
	decoded, err := r.Run(encoded, []pattern.TransformStep{step("base64decode")})
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded)
}

func TestBuiltin_SHA256(t *testing.T) {
	r := New()
	out, err := r.Run("hello", []pattern.TransformStep{step("sha256")})
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", out)
}

func TestBuiltin_Concat(t *testing.T) {
	r := New()
	out, err := r.Run("foo", []pattern.TransformStep{step("concat", "-", "bar")})
	require.NoError(t, err)
	assert.Equal(t, "foo-bar", out)
}

func TestBuiltin_Expr(t *testing.T) {
	r := New()
	out, err := r.Run("N/A", []pattern.TransformStep{step("expr", "value == 'N/A'")})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestBuiltin_Expr_InvalidArgIsPermanentError(t *testing.T) {
	r := New()
	_, err := r.Run("value", []pattern.TransformStep{step("expr", 5)})
	require.Error(t, err)
	assert.True(t, common.IsPermanent(err))
}
