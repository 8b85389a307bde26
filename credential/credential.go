// Package credential resolves the bearer token used for the hosted model
// endpoint, either from the environment or from a manually entered value.
package credential

import (
	"errors"
	"os"
	"strings"
)

// DefaultEnvVar carries the default Clarifai personal access token
const DefaultEnvVar = "CLARIFAI_PAT"

// ErrMissing is returned when no credential can be resolved
var ErrMissing = errors.New("please enter a valid Clarifai PAT or use the existing environment key")

// Source tells where a credential came from
type Source string

const (
	SourceNone        Source = ""
	SourceEnvironment Source = "environment"
	SourceManual      Source = "manual"
)

// LookupFunc reads an environment variable
type LookupFunc func(key string) string

// Resolver picks the credential according to the environment toggle
type Resolver struct {
	EnvVar string
	Lookup LookupFunc
}

// NewResolver returns a Resolver reading envVar from the process environment
func NewResolver(envVar string) Resolver {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	return Resolver{EnvVar: envVar, Lookup: os.Getenv}
}

// Resolve returns the environment value when useEnv is set and the trimmed
// manual value otherwise. An empty result yields ErrMissing.
func (r Resolver) Resolve(useEnv bool, manual string) (Source, string, error) {
	if useEnv {
		lookup := r.Lookup
		if lookup == nil {
			lookup = os.Getenv
		}
		if token := strings.TrimSpace(lookup(r.EnvVar)); token != "" {
			return SourceEnvironment, token, nil
		}
		return SourceNone, "", ErrMissing
	}

	if token := strings.TrimSpace(manual); token != "" {
		return SourceManual, token, nil
	}
	return SourceNone, "", ErrMissing
}

// Available reports whether Resolve would succeed
func (r Resolver) Available(useEnv bool, manual string) bool {
	_, _, err := r.Resolve(useEnv, manual)
	return err == nil
}

// Mask hides all but the last four characters of token
func Mask(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 4) + token[len(token)-4:]
}
