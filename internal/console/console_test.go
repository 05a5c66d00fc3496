package console

import (
	"reflect"
	"testing"
	"time"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/models"
)

func newTestPage() *Page {
	return NewPage(PageOptions{ToastTTL: time.Hour, Location: time.UTC})
}

func TestSetUsersAppendsAnonymous(t *testing.T) {
	p := newTestPage()

	got := p.SetUsers([]models.User{{Email: "a@x.com", Role: models.RoleAdmin}})
	if len(got) != 2 || !got[1].IsAnonymous() || got[1].Role != models.RoleAnonymous {
		t.Fatalf("SetUsers() = %+v", got)
	}

	got = p.SetUsers([]models.User{{Email: models.AnonymousEmail, Role: models.RoleUser}})
	if len(got) != 1 {
		t.Errorf("anonymous user listed twice: %+v", got)
	}
}

func TestSelection(t *testing.T) {
	p := newTestPage()
	p.SetUsers([]models.User{{Email: "a@x.com"}, {Email: "b@x.com"}})

	if sel, ok := p.ToggleUser("b@x.com"); !sel || !ok {
		t.Fatalf("ToggleUser() = %v, %v", sel, ok)
	}
	if _, ok := p.ToggleUser("ghost@x.com"); ok {
		t.Errorf("unknown user toggled")
	}
	p.ToggleUser("a@x.com")
	if got := p.SelectedUsers(); !reflect.DeepEqual(got, []string{"a@x.com", "b@x.com"}) {
		t.Errorf("SelectedUsers() = %v", got)
	}

	p.ClearSelection()
	if len(p.SelectedUsers()) != 0 {
		t.Errorf("selection not cleared")
	}

	p.SelectAll()
	if len(p.SelectedUsers()) != 3 {
		t.Errorf("SelectAll() selected %v", p.SelectedUsers())
	}

	p.RemoveUser("a@x.com")
	p.SetUsers([]models.User{{Email: "b@x.com"}})
	if got := p.SelectedUsers(); !reflect.DeepEqual(got, []string{"b@x.com", models.AnonymousEmail}) {
		t.Errorf("SelectedUsers() after refetch = %v", got)
	}
}

func TestUserRows(t *testing.T) {
	p := newTestPage()
	p.SetUsers([]models.User{
		{Email: "admin@x.com", Role: models.RoleAdmin},
		{Email: "u@x.com", Role: models.RoleUser},
	})

	tests := []struct {
		name       string
		actor      models.Identity
		email      string
		wantChange bool
		wantDelete bool
	}{
		{"admin on other", models.Identity{Email: "admin@x.com", Role: models.RoleAdmin}, "u@x.com", true, true},
		{"admin on self", models.Identity{Email: "admin@x.com", Role: models.RoleAdmin}, "admin@x.com", false, false},
		{"admin on anonymous", models.Identity{Email: "admin@x.com", Role: models.RoleAdmin}, models.AnonymousEmail, false, false},
		{"management on other", models.Identity{Email: "m@x.com", Role: models.RoleManagement}, "u@x.com", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, row := range p.UserRows(tt.actor, access.DefaultPolicy()) {
				if row.Email != tt.email {
					continue
				}
				if row.CanChangeRole != tt.wantChange || row.CanDelete != tt.wantDelete {
					t.Errorf("row = %+v", row)
				}
				return
			}
			t.Fatalf("no row for %s", tt.email)
		})
	}
}

func TestAgentPatches(t *testing.T) {
	p := newTestPage()
	p.SetAgents([]models.AgentCard{{Id: "1", Name: "one"}, {Id: "2", Name: "two"}})

	p.SetAgentAPIKey("2", "secret")
	p.RemoveAgent("1")
	p.AddAgent(models.AgentCard{Id: "3", Name: "three"})

	agents := p.Agents()
	if len(agents) != 2 || agents[0].Id != "2" || agents[0].APIKey != "secret" || agents[1].Id != "3" {
		t.Errorf("Agents() = %+v", agents)
	}
	if _, ok := p.Agent("1"); ok {
		t.Errorf("removed agent still found")
	}
}

func TestServerPatches(t *testing.T) {
	p := newTestPage()
	p.SetServers([]models.McpServer{{Id: "s1"}, {Id: "s2"}})
	p.RemoveServer("s1")
	p.AddServer(models.McpServer{Id: "s3"})

	servers := p.Servers()
	if len(servers) != 2 || servers[0].Id != "s2" || servers[1].Id != "s3" {
		t.Errorf("Servers() = %+v", servers)
	}
}

func TestAddWithoutIdentityDropsList(t *testing.T) {
	p := newTestPage()
	p.SetServers([]models.McpServer{{Id: "s1"}})
	p.SetAgents([]models.AgentCard{{Id: "1", Name: "one"}})

	if p.AddServer(models.McpServer{}) {
		t.Errorf("AddServer() accepted a server without id")
	}
	if got := p.Servers(); len(got) != 0 {
		t.Errorf("Servers() = %+v, want the cached list dropped", got)
	}

	if p.AddAgent(models.AgentCard{Id: "2"}) {
		t.Errorf("AddAgent() accepted an agent without name")
	}
	if got := p.Agents(); len(got) != 0 {
		t.Errorf("Agents() = %+v, want the cached list dropped", got)
	}
}

func TestStoreGetAndDrop(t *testing.T) {
	s := NewStore(0, PageOptions{ToastTTL: time.Hour})
	defer s.Close()

	a := s.Get("a")
	if s.Get("a") != a {
		t.Fatalf("Get() returned a different page for the same session")
	}
	a.Toasts.Success("hello")
	s.Drop("a")

	if s.Len() != 0 {
		t.Errorf("Len() = %d after Drop", s.Len())
	}
	if len(a.Toasts.List()) != 0 {
		t.Errorf("dropped page still shows toasts")
	}
	if s.Get("a") == a {
		t.Errorf("dropped page reused")
	}
}

func TestStoreSweep(t *testing.T) {
	s := NewStore(time.Minute, PageOptions{ToastTTL: time.Hour})
	defer s.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.Get("old")
	now = now.Add(45 * time.Second)
	s.Get("fresh")
	now = now.Add(30 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
