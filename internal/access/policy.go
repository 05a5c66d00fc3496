// Package access resolves who the operator is and what they may do.
package access

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/a2a-routing/console/internal/models"
)

// Capability is one console action or page an operator may be granted
type Capability string

const (
	ViewAgents    Capability = "view_agents"
	ViewMcp       Capability = "view_mcp"
	ViewOwnLogs   Capability = "view_own_logs"
	RegisterAgent Capability = "register_agent"
	RegisterMcp   Capability = "register_mcp"
	ManageUsers   Capability = "manage_users"
	ManageRoles   Capability = "manage_roles"
	ViewAllLogs   Capability = "view_all_logs"
)

var knownCapabilities = map[Capability]struct{}{
	ViewAgents: {}, ViewMcp: {}, ViewOwnLogs: {}, RegisterAgent: {},
	RegisterMcp: {}, ManageUsers: {}, ManageRoles: {}, ViewAllLogs: {},
}

var (
	ErrSelfTarget      = errors.New("operators cannot manage their own account")
	ErrAnonymousTarget = errors.New("the anonymous user cannot be managed")
)

// Policy maps roles to granted capabilities
type Policy struct {
	grants map[models.Role]map[Capability]struct{}
}

// DefaultPolicy mirrors the role permission table of the console
func DefaultPolicy() *Policy {
	viewer := []Capability{ViewAgents, ViewMcp, ViewOwnLogs}
	p, _ := NewPolicy(map[models.Role][]Capability{
		models.RoleUser:       viewer,
		models.RoleMaintainer: append(append([]Capability{}, viewer...), RegisterAgent, RegisterMcp),
		models.RoleManagement: append(append([]Capability{}, viewer...), ViewAllLogs),
		models.RoleAdmin: append(append([]Capability{}, viewer...),
			RegisterAgent, RegisterMcp, ManageUsers, ManageRoles, ViewAllLogs),
	})
	return p
}

// NewPolicy builds a policy, rejecting unknown capability names
func NewPolicy(grants map[models.Role][]Capability) (*Policy, error) {
	p := &Policy{grants: make(map[models.Role]map[Capability]struct{}, len(grants))}
	for role, caps := range grants {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			if _, ok := knownCapabilities[c]; !ok {
				return nil, fmt.Errorf("role %q: unknown capability %q", role, c)
			}
			set[c] = struct{}{}
		}
		p.grants[role] = set
	}
	return p, nil
}

type policyFile struct {
	Roles map[models.Role][]Capability `yaml:"roles"`
}

// LoadPolicy reads a YAML policy file; an empty path yields the default policy.
//
//	roles:
//	  admin: [view_agents, manage_users]
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role policy: %w", err)
	}
	var f policyFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse role policy: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("role policy %s grants nothing", path)
	}
	return NewPolicy(f.Roles)
}

// Can reports whether role holds capability
func (p *Policy) Can(role models.Role, c Capability) bool {
	_, ok := p.grants[role][c]
	return ok
}

// Capabilities lists the capabilities of role in a stable order
func (p *Policy) Capabilities(role models.Role) []Capability {
	out := make([]Capability, 0, len(p.grants[role]))
	for c := range p.grants[role] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanManageUser rejects role changes and deletions aimed at the operator's
// own account or at the anonymous sentinel.
func CanManageUser(actor models.Identity, target string) error {
	if target == models.AnonymousEmail {
		return ErrAnonymousTarget
	}
	if actor.Email != "" && target == actor.Email {
		return ErrSelfTarget
	}
	return nil
}
