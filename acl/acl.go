// Package acl defines the closed set of capabilities an API key can hold and
// the Authorizer used to check them when optional relationships are loaded.
package acl

import (
	"strings"

	"github.com/pkg/errors"
)

// Capability is a named permission tag. Only the values declared below are
// valid.
type Capability string

const (
	// Nests allows reading nests.
	Nests Capability = "nests"
	// Eggs allows reading eggs and their variables.
	Eggs Capability = "eggs"
	// Servers allows reading servers.
	Servers Capability = "servers"
)

// All returns every known capability.
func All() []Capability {
	return []Capability{Nests, Eggs, Servers}
}

// Parse returns the capability for the given name.
func Parse(name string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range All() {
		if c == known {
			return c, nil
		}
	}
	return "", errors.Errorf("acl: unknown capability %q", name)
}

// Authorizer answers capability checks for a single caller.
type Authorizer interface {
	Authorize(Capability) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(Capability) bool

// Authorize calls f(c).
func (f AuthorizerFunc) Authorize(c Capability) bool {
	return f(c)
}

// AllowAll grants every capability.
var AllowAll Authorizer = AuthorizerFunc(func(Capability) bool { return true })

// DenyAll denies every capability.
var DenyAll Authorizer = AuthorizerFunc(func(Capability) bool { return false })

type keyAuthorizer struct {
	token        string
	capabilities map[Capability]struct{}
}

var _ Authorizer = &keyAuthorizer{}

// NewKeyAuthorizer returns an Authorizer granting exactly the capabilities
// configured for an API key.
func NewKeyAuthorizer(token string, capabilities []Capability) Authorizer {
	a := &keyAuthorizer{
		token:        token,
		capabilities: make(map[Capability]struct{}, len(capabilities)),
	}
	for _, c := range capabilities {
		a.capabilities[c] = struct{}{}
	}
	return a
}

func (a *keyAuthorizer) Authorize(c Capability) bool {
	if a.token == "" {
		return false
	}
	_, ok := a.capabilities[c]
	return ok
}
