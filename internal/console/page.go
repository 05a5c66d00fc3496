// Package console holds the per-session state of the operator console:
// the lists each page fetched, the log pipelines and the toast queue.
package console

import (
	"sync"
	"time"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/logs"
	"github.com/a2a-routing/console/internal/models"
	"github.com/a2a-routing/console/internal/toast"
)

// Page is the state owned by one console session. Lists are the last
// successful fetch, patched locally after successful mutations.
type Page struct {
	Toasts        *toast.Queue
	Conversations *logs.View[models.ConversationLog, logs.ConversationFilter]
	Platform      *logs.View[models.PlatformLog, logs.PlatformFilter]
	OwnLogs       *logs.View[models.ConversationLog, logs.ConversationFilter]

	mu       sync.Mutex
	identity models.Identity
	users    []models.User
	selected map[string]struct{}
	agents   []models.AgentCard
	servers  []models.McpServer
	lastSeen time.Time
}

// PageOptions configure the state of new pages
type PageOptions struct {
	ToastTTL   time.Duration
	MinLoading time.Duration
	Location   *time.Location
	OnToast    func(toast.Type)
}

// NewPage creates empty page state
func NewPage(o PageOptions) *Page {
	loc := o.Location
	if loc == nil {
		loc = time.Local
	}
	var toastOpts []toast.Option
	if o.OnToast != nil {
		toastOpts = append(toastOpts, toast.OnPush(o.OnToast))
	}
	return &Page{
		Toasts:        toast.New(o.ToastTTL, toastOpts...),
		Conversations: logs.NewView(logs.Conversations, loc, logs.WithMinLoading(o.MinLoading)),
		Platform:      logs.NewView(logs.Platform, loc, logs.WithMinLoading(o.MinLoading)),
		OwnLogs:       logs.NewView(logs.Conversations, loc, logs.WithMinLoading(o.MinLoading)),
		selected:      make(map[string]struct{}),
		lastSeen:      time.Now(),
	}
}

// SetIdentity records the identity resolved for the current request
func (p *Page) SetIdentity(id models.Identity) {
	p.mu.Lock()
	p.identity = id
	p.mu.Unlock()
}

// Identity returns the last resolved identity
func (p *Page) Identity() models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity
}

// SetUsers replaces the user list and appends the anonymous sentinel when
// the backend did not list it. Selected users that disappeared are dropped.
func (p *Page) SetUsers(users []models.User) []models.User {
	list := make([]models.User, 0, len(users)+1)
	hasAnonymous := false
	for _, u := range users {
		if u.IsAnonymous() {
			hasAnonymous = true
		}
		list = append(list, u)
	}
	if !hasAnonymous {
		list = append(list, models.AnonymousUser())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = list
	kept := make(map[string]struct{}, len(p.selected))
	for _, u := range list {
		if _, ok := p.selected[u.Email]; ok {
			kept[u.Email] = struct{}{}
		}
	}
	p.selected = kept
	return append([]models.User(nil), list...)
}

// Users returns the listed users
func (p *Page) Users() []models.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.User(nil), p.users...)
}

// UserRows renders the user table for actor
func (p *Page) UserRows(actor models.Identity, policy *access.Policy) []models.UserRow {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows := make([]models.UserRow, 0, len(p.users))
	for _, u := range p.users {
		manageable := access.CanManageUser(actor, u.Email) == nil
		_, selected := p.selected[u.Email]
		rows = append(rows, models.UserRow{
			User:          u,
			Selected:      selected,
			CanChangeRole: manageable && policy.Can(actor.Role, access.ManageRoles),
			CanDelete:     manageable && policy.Can(actor.Role, access.ManageUsers),
		})
	}
	return rows
}

// ToggleUser flips the selection of email; it reports false for unknown users
func (p *Page) ToggleUser(email string) (selected, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasUserLocked(email) {
		return false, false
	}
	if _, on := p.selected[email]; on {
		delete(p.selected, email)
		return false, true
	}
	p.selected[email] = struct{}{}
	return true, true
}

// SelectAll selects every listed user
func (p *Page) SelectAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		p.selected[u.Email] = struct{}{}
	}
}

// ClearSelection deselects everybody
func (p *Page) ClearSelection() {
	p.mu.Lock()
	p.selected = make(map[string]struct{})
	p.mu.Unlock()
}

// SelectedUsers lists the selected emails in user list order
func (p *Page) SelectedUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.selected))
	for _, u := range p.users {
		if _, ok := p.selected[u.Email]; ok {
			out = append(out, u.Email)
		}
	}
	return out
}

// RemoveUser drops a deleted user from the list and the selection
func (p *Page) RemoveUser(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.selected, email)
	for i, u := range p.users {
		if u.Email == email {
			p.users = append(p.users[:i], p.users[i+1:]...)
			return
		}
	}
}

// SetUserRole patches the role of a listed user
func (p *Page) SetUserRole(email string, role models.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.users {
		if p.users[i].Email == email {
			p.users[i].Role = role
			return
		}
	}
}

func (p *Page) hasUserLocked(email string) bool {
	for _, u := range p.users {
		if u.Email == email {
			return true
		}
	}
	return false
}

// SetAgents replaces the agent list
func (p *Page) SetAgents(agents []models.AgentCard) {
	p.mu.Lock()
	p.agents = append([]models.AgentCard{}, agents...)
	p.mu.Unlock()
}

// Agents returns the listed agents
func (p *Page) Agents() []models.AgentCard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.AgentCard{}, p.agents...)
}

// Agent looks up a listed agent
func (p *Page) Agent(id string) (models.AgentCard, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.agents {
		if a.Id == id {
			return a, true
		}
	}
	return models.AgentCard{}, false
}

// AddAgent appends a newly registered agent. A record without id or name
// cannot be listed; the cached list is dropped instead so the next listing
// refetches it. It reports whether the record was appended.
func (p *Page) AddAgent(a models.AgentCard) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a.Id == "" || a.Name == "" {
		p.agents = nil
		return false
	}
	p.agents = append(p.agents, a)
	return true
}

// RemoveAgent drops a deleted agent
func (p *Page) RemoveAgent(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, a := range p.agents {
		if a.Id == id {
			p.agents = append(p.agents[:i], p.agents[i+1:]...)
			return
		}
	}
}

// SetAgentAPIKey patches the saved API key of an agent
func (p *Page) SetAgentAPIKey(id, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.agents {
		if p.agents[i].Id == id {
			p.agents[i].APIKey = key
			return
		}
	}
}

// SetServers replaces the MCP server list
func (p *Page) SetServers(servers []models.McpServer) {
	p.mu.Lock()
	p.servers = append([]models.McpServer{}, servers...)
	p.mu.Unlock()
}

// Servers returns the listed MCP servers
func (p *Page) Servers() []models.McpServer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.McpServer{}, p.servers...)
}

// AddServer appends a newly registered MCP server, or drops the cached list
// when the record carries no id
func (p *Page) AddServer(s models.McpServer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Id == "" {
		p.servers = nil
		return false
	}
	p.servers = append(p.servers, s)
	return true
}

// RemoveServer drops a deleted MCP server
func (p *Page) RemoveServer(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.servers {
		if s.Id == id {
			p.servers = append(p.servers[:i], p.servers[i+1:]...)
			return
		}
	}
}

// Reset forgets everything fetched; in-flight log fetches are discarded
func (p *Page) Reset() {
	p.Conversations.Reset()
	p.Platform.Reset()
	p.OwnLogs.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = models.Identity{}
	p.users = nil
	p.selected = make(map[string]struct{})
	p.agents = nil
	p.servers = nil
}

func (p *Page) touch(now time.Time) {
	p.mu.Lock()
	p.lastSeen = now
	p.mu.Unlock()
}

func (p *Page) idleSince() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

func (p *Page) close() {
	p.Reset()
	p.Toasts.Close()
}
