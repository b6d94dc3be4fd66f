package auth

import (
	"net/http"
	"slices"
	"strings"

	"society/internal/core"
)

var (
	anyRole = []core.Role{core.RoleResident, core.RoleAdmin, core.RoleAccountant}
	staff   = []core.Role{core.RoleAdmin, core.RoleAccountant}
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip authentication.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// AllowedRoles resolves the roles that may call the request. ok is false
// for paths outside the API, which need only an identity.
func (p Policy) AllowedRoles(r *http.Request) ([]core.Role, bool) {
	if r == nil {
		return nil, false
	}
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/v1/me/"):
		return anyRole, true
	case strings.HasPrefix(path, "/api/v1/admin/"):
		return staff, true
	case strings.HasPrefix(path, "/api/v1/settlements"):
		return staff, true
	case strings.HasPrefix(path, "/api/"):
		return staff, true
	}
	return nil, false
}

// Allows reports whether role may call the request.
func (p Policy) Allows(r *http.Request, role core.Role) bool {
	roles, scoped := p.AllowedRoles(r)
	if !scoped {
		return role.Valid()
	}
	return slices.Contains(roles, role)
}
