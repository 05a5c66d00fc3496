package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/logs"
	"github.com/a2a-routing/console/internal/models"
)

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    int
		wantErr bool
	}{
		{"single", "access_token=abc", 1, false},
		{"several", "access_token=abc; refresh=def", 2, false},
		{"empty", "  ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := parseCookies(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCookies() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(creds) != tt.want {
				t.Errorf("got %d cookies, want %d", len(creds), tt.want)
			}
		})
	}
}

func TestCookieHeader(t *testing.T) {
	got := cookieHeader([]*http.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}})
	if got != "a=1; b=2" {
		t.Errorf("cookieHeader() = %q", got)
	}
}

func TestPrintIdentityUsesPolicyFile(t *testing.T) {
	id := models.Identity{Email: "u@x.com", Role: models.RoleUser}

	var def strings.Builder
	if err := printIdentity(&def, id, ""); err != nil {
		t.Fatalf("printIdentity() error = %v", err)
	}
	if !strings.Contains(def.String(), "view_mcp") {
		t.Errorf("default policy output = %q", def.String())
	}

	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("roles:\n  user: [view_agents]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var custom strings.Builder
	if err := printIdentity(&custom, id, path); err != nil {
		t.Fatalf("printIdentity() error = %v", err)
	}
	if !strings.Contains(custom.String(), "view_agents") || strings.Contains(custom.String(), "view_mcp") {
		t.Errorf("policy file ignored: %q", custom.String())
	}

	if err := printIdentity(&custom, id, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing policy file")
	}
}

func exportBackend(t *testing.T) *backend.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/logs", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"a@x.com"`) {
			http.Error(w, `{"detail":"no users"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"_id":"1","timestamp":"2024-01-01T00:00:00Z","user_email":"a@x.com","history":[{"role":"user","parts":[{"text":"hi"}]}]}]`)
	})
	mux.HandleFunc("POST /admin/platform-logs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"_id":"p1","email":"a@x.com","event_name":"register_agent","timestamp":"2024-02-01T10:00:00Z","error":true},
			{"_id":"p2","email":"a@x.com","event_name":"delete_agent","timestamp":"2024-02-02T10:00:00Z","error":false}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return backend.New(srv.URL, 5*time.Second)
}

func TestRunExportAllKinds(t *testing.T) {
	client := exportBackend(t)
	dir := t.TempDir()

	written, err := runExport(context.Background(), client, backend.Credentials{{Name: "access_token", Value: "t"}}, exportOptions{
		kind:      "all",
		users:     []string{" a@x.com ", ""},
		errorOnly: true,
		format:    "csv",
		out:       dir,
		timezone:  "UTC",
	})
	if err != nil {
		t.Fatalf("runExport() error = %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("wrote %v, want two files", written)
	}

	for _, path := range written {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		base := filepath.Base(path)
		switch {
		case strings.HasPrefix(base, "A2A_Platform_Logs_"):
			if strings.Contains(string(data), "delete_agent") {
				t.Errorf("error-only export contains a successful operation:\n%s", data)
			}
			if !strings.Contains(string(data), "register_agent") {
				t.Errorf("platform export misses the failed operation:\n%s", data)
			}
		case strings.HasPrefix(base, "A2A_Admin_Logs_"):
			if !strings.Contains(string(data), "hi") {
				t.Errorf("conversation export misses the user input:\n%s", data)
			}
		default:
			t.Errorf("unexpected file %s", base)
		}
	}
}

func TestRunExportRejectsBadOptions(t *testing.T) {
	client := exportBackend(t)
	creds := backend.Credentials{{Name: "access_token", Value: "t"}}

	tests := []struct {
		name string
		opts exportOptions
	}{
		{"format", exportOptions{kind: "conversation", users: []string{"a@x.com"}, format: "xml", out: t.TempDir(), timezone: "UTC"}},
		{"kind", exportOptions{kind: "audit", users: []string{"a@x.com"}, format: "json", out: t.TempDir(), timezone: "UTC"}},
		{"timezone", exportOptions{kind: "conversation", users: []string{"a@x.com"}, format: "json", out: t.TempDir(), timezone: "Mars/Olympus"}},
		{"date", exportOptions{kind: "conversation", users: []string{"a@x.com"}, start: "2024-13-40", format: "json", out: t.TempDir(), timezone: "UTC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			written, err := runExport(context.Background(), client, creds, tt.opts)
			if err == nil {
				t.Fatal("expected an error")
			}
			if len(written) != 0 {
				t.Errorf("wrote %v despite the error", written)
			}
		})
	}
}

func TestRunExportWithoutUsers(t *testing.T) {
	client := exportBackend(t)
	_, err := runExport(context.Background(), client, nil, exportOptions{
		kind:     "conversation",
		users:    []string{"  "},
		format:   "json",
		out:      t.TempDir(),
		timezone: "UTC",
	})
	if !errors.Is(err, logs.ErrNoUsersSelected) {
		t.Errorf("error = %v, want ErrNoUsersSelected", err)
	}
}
