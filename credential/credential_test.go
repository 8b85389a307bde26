package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(values map[string]string) LookupFunc {
	return func(key string) string { return values[key] }
}

func TestResolve_Environment(t *testing.T) {
	r := Resolver{EnvVar: DefaultEnvVar, Lookup: fakeEnv(map[string]string{DefaultEnvVar: " env-token "})}

	source, token, err := r.Resolve(true, "ignored")
	require.NoError(t, err)
	assert.Equal(t, SourceEnvironment, source)
	assert.Equal(t, "env-token", token)
}

func TestResolve_EnvironmentMissing(t *testing.T) {
	r := Resolver{EnvVar: DefaultEnvVar, Lookup: fakeEnv(nil)}

	source, token, err := r.Resolve(true, "manual-token")
	assert.True(t, errors.Is(err, ErrMissing))
	assert.Equal(t, SourceNone, source)
	assert.Empty(t, token)
	assert.False(t, r.Available(true, "manual-token"))
}

func TestResolve_Manual(t *testing.T) {
	r := Resolver{EnvVar: DefaultEnvVar, Lookup: fakeEnv(map[string]string{DefaultEnvVar: "env-token"})}

	source, token, err := r.Resolve(false, "  manual-token\n")
	require.NoError(t, err)
	assert.Equal(t, SourceManual, source)
	assert.Equal(t, "manual-token", token)
}

func TestResolve_ManualEmpty(t *testing.T) {
	r := Resolver{EnvVar: DefaultEnvVar, Lookup: fakeEnv(map[string]string{DefaultEnvVar: "env-token"})}

	for _, manual := range []string{"", "   ", "\t\n"} {
		_, _, err := r.Resolve(false, manual)
		assert.ErrorIs(t, err, ErrMissing, "manual value %q", manual)
		assert.False(t, r.Available(false, manual))
	}
}

func TestNewResolverDefaultsEnvVar(t *testing.T) {
	assert.Equal(t, DefaultEnvVar, NewResolver("").EnvVar)
	assert.Equal(t, "OTHER", NewResolver("OTHER").EnvVar)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "****7890", Mask("1234567890"))
}
