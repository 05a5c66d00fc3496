package logs

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/models"
)

type fakePoster struct {
	calls int
	path  string
	body  []byte
	reply string
	err   error
}

func (f *fakePoster) PostJSON(ctx context.Context, creds backend.Credentials, path string, in, out interface{}) error {
	f.calls++
	f.path = path
	f.body, _ = json.Marshal(in)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.reply), out)
}

const conversationFixture = `[
  {"_id":"1","timestamp":"2024-01-01T00:00:00Z","user_email":"a@x.com","history":[{"role":"user","parts":[{"text":"hi"}]}],"status":{"message":{"parts":[{"text":"hello"}]}}},
  {"_id":"2","timestamp":"2024-01-05T12:00:00Z","user_email":"B@x.com","history":[{"role":"user","parts":[{"text":"Deploy, please"}]}],"status":{"message":"done \"ok\""}},
  {"_id":"3","timestamp":"2024-01-10T08:30:00Z","user_email":"c@y.org","history":[],"status":{},"extra":{"keep":true}}
]`

const platformFixture = `[
  {"_id":"p1","email":"a@x.com","event_name":"register_agent","timestamp":"2024-02-01T10:00:00Z","error":true,"content":{"reason":"bad url"}},
  {"_id":"p2","email":"b@x.com","event_name":"delete_agent","summary":"removed","timestamp":"2024-02-02T10:00:00Z","error":false}
]`

func newConversationView(t *testing.T) *View[models.ConversationLog, ConversationFilter] {
	t.Helper()
	v := NewView(Conversations, time.UTC, WithClock(func() time.Time {
		return time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)
	}))
	src := &fakePoster{reply: conversationFixture}
	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com"}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	return v
}

func TestFetchScenario(t *testing.T) {
	src := &fakePoster{reply: `[{"_id":"1","timestamp":"2024-01-01T00:00:00Z","user_email":"a@x.com","history":[{"role":"user","parts":[{"text":"hi"}]}],"status":{"message":{"parts":[{"text":"hello"}]}}}]`}
	v := NewView(Conversations, time.UTC)

	n, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Fetch() = %d records, want 1", n)
	}
	if src.path != "/admin/logs" {
		t.Errorf("path = %q", src.path)
	}
	if string(src.body) != `{"user_emails":["a@x.com"]}` {
		t.Errorf("body = %s", src.body)
	}

	snap := v.Snapshot()
	if snap.Shown != 1 {
		t.Fatalf("Shown = %d, want 1", snap.Shown)
	}
	rec := snap.Rows[0].Record
	if rec.UserInput() != "hi" || rec.AgentResponse() != "hello" {
		t.Errorf("row = (%q, %q), want (hi, hello)", rec.UserInput(), rec.AgentResponse())
	}
}

func TestFetchSendsDateWindow(t *testing.T) {
	src := &fakePoster{reply: `[]`}
	v := NewView(Platform, time.UTC)
	if err := v.SetFilter(PlatformFilter{StartDate: "2024-01-01", EndDate: "2024-01-31"}); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}

	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com", "b@x.com"}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := `{"user_emails":["a@x.com","b@x.com"],"start_date":"2024-01-01T00:00:00.000Z","end_date":"2024-01-31T00:00:00.000Z"}`
	if string(src.body) != want {
		t.Errorf("body = %s\nwant %s", src.body, want)
	}
	if src.path != "/admin/platform-logs" {
		t.Errorf("path = %q", src.path)
	}
}

func TestFetchDateWindowIgnoresDisplayZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}
	src := &fakePoster{reply: `[]`}
	v := NewView(Conversations, tokyo)
	if err := v.SetFilter(ConversationFilter{StartDate: "2024-01-02", EndDate: "2024-01-05"}); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}

	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com"}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := `{"user_emails":["a@x.com"],"start_date":"2024-01-02T00:00:00.000Z","end_date":"2024-01-05T00:00:00.000Z"}`
	if string(src.body) != want {
		t.Errorf("body = %s\nwant %s", src.body, want)
	}
}

func TestFetchEmptyReplyExportsEmptyArray(t *testing.T) {
	src := &fakePoster{reply: `[]`}
	v := NewView(Conversations, time.UTC)
	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com"}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	exp, err := v.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if string(exp.Data) != "[]" || !strings.HasSuffix(exp.Filename, ".json") {
		t.Errorf("export = %q %q", exp.Filename, exp.Data)
	}
}

func TestFetchWithoutUsers(t *testing.T) {
	src := &fakePoster{reply: `[]`}
	v := NewView(Conversations, time.UTC)

	_, err := v.Fetch(context.Background(), src, nil, nil)
	if !errors.Is(err, ErrNoUsersSelected) {
		t.Fatalf("Fetch() error = %v, want ErrNoUsersSelected", err)
	}
	if src.calls != 0 {
		t.Errorf("backend called %d times", src.calls)
	}
}

func TestFetchFailureClearsCollection(t *testing.T) {
	v := newConversationView(t)
	v.Toggle(0)

	src := &fakePoster{err: &backend.APIError{Status: 400, Detail: "bad range"}}
	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com"}); err == nil {
		t.Fatal("Fetch() should fail")
	}
	if len(v.Records()) != 0 {
		t.Errorf("records kept after a failed fetch")
	}
	if len(v.OpenRows()) != 0 {
		t.Errorf("open rows kept after a failed fetch")
	}
}

func TestLateResponseAfterReset(t *testing.T) {
	v := NewView(Conversations, time.UTC)

	_, err := v.Load(context.Background(), 1, func(context.Context) ([]models.ConversationLog, error) {
		v.Reset()
		return []models.ConversationLog{{ID: "late"}}, nil
	})
	if !errors.Is(err, ErrStale) {
		t.Fatalf("Load() error = %v, want ErrStale", err)
	}
	if len(v.Records()) != 0 {
		t.Errorf("late response was applied")
	}
	if v.Loading().Fetching {
		t.Errorf("fetching flag left raised")
	}
}

func TestFilterSubsetAndConjunction(t *testing.T) {
	v := newConversationView(t)
	all := v.Records()

	filters := []ConversationFilter{
		{},
		{UserEmail: "X.COM"},
		{SearchText: "deploy"},
		{SearchText: "HELLO"},
		{StartDate: "2024-01-05"},
		{EndDate: "2024-01-05"},
		{StartDate: "2024-01-02", EndDate: "2024-01-09", UserEmail: "b@"},
		{UserEmail: "nobody"},
	}
	for _, f := range filters {
		if err := v.SetFilter(f); err != nil {
			t.Fatalf("SetFilter(%+v) error = %v", f, err)
		}
		got := v.Filtered()
		if len(got) > len(all) {
			t.Errorf("%+v: filtered larger than source", f)
		}
		for _, r := range got {
			if !Conversations.matches(r, f, time.UTC) {
				t.Errorf("%+v: record %s does not satisfy the filter", f, r.ID)
			}
			found := false
			for _, s := range all {
				if s.ID == r.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("%+v: record %s not in source", f, r.ID)
			}
		}
	}
}

func TestFilterResults(t *testing.T) {
	v := newConversationView(t)

	tests := []struct {
		name   string
		filter ConversationFilter
		want   []string
	}{
		{"none", ConversationFilter{}, []string{"1", "2", "3"}},
		{"user case-insensitive", ConversationFilter{UserEmail: "b@X"}, []string{"2"}},
		{"search input", ConversationFilter{SearchText: "DEPLOY"}, []string{"2"}},
		{"search response", ConversationFilter{SearchText: "hell"}, []string{"1"}},
		{"end date inclusive of whole day", ConversationFilter{EndDate: "2024-01-05"}, []string{"1", "2"}},
		{"start date", ConversationFilter{StartDate: "2024-01-05"}, []string{"2", "3"}},
		{"conjunction", ConversationFilter{StartDate: "2024-01-02", UserEmail: "x.com"}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.SetFilter(tt.filter); err != nil {
				t.Fatalf("SetFilter() error = %v", err)
			}
			var got []string
			for _, r := range v.Filtered() {
				got = append(got, r.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filtered() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClearFilterRestoresCollection(t *testing.T) {
	v := newConversationView(t)
	if err := v.SetFilter(ConversationFilter{SearchText: "hi", UserEmail: "a@"}); err != nil {
		t.Fatal(err)
	}
	v.ClearFilter()

	if !reflect.DeepEqual(v.Filtered(), v.Records()) {
		t.Errorf("Filtered() differs from Records() after ClearFilter")
	}
	if v.Filter() != (ConversationFilter{}) {
		t.Errorf("Filter() = %+v", v.Filter())
	}
}

func TestSetFilterRejectsBadDate(t *testing.T) {
	v := NewView(Conversations, time.UTC)
	if err := v.SetFilter(ConversationFilter{StartDate: "01/02/2024"}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("SetFilter() error = %v, want ErrInvalidDate", err)
	}
}

func TestToggleTwice(t *testing.T) {
	v := newConversationView(t)
	if _, err := v.Toggle(2); err != nil {
		t.Fatal(err)
	}
	before := v.OpenRows()

	for i := 0; i < 2; i++ {
		if _, err := v.Toggle(0); err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(v.OpenRows(), before) {
		t.Errorf("OpenRows() = %v, want %v", v.OpenRows(), before)
	}
	if _, err := v.Toggle(9); !errors.Is(err, ErrNoSuchRow) {
		t.Errorf("Toggle(9) error = %v", err)
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	v := newConversationView(t)
	if err := v.SetFilter(ConversationFilter{UserEmail: "a@x.com"}); err != nil {
		t.Fatal(err)
	}

	exp, err := v.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if exp.Filename != "A2A_Admin_Logs_2024-03-04.json" {
		t.Errorf("Filename = %q", exp.Filename)
	}

	var got, want interface{}
	if err := json.Unmarshal(exp.Data, &got); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(conversationFixture), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("export differs from the fetched collection\n%s", exp.Data)
	}
	if !bytes.Contains(exp.Data, []byte("\n  {")) {
		t.Errorf("export is not indented with two spaces")
	}
}

func TestExportEmpty(t *testing.T) {
	v := NewView(Conversations, time.UTC)
	if _, err := v.ExportCSV(); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("ExportCSV() error = %v", err)
	}
	exp, err := v.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() on an empty collection error = %v", err)
	}
	if string(exp.Data) != "[]" {
		t.Errorf("ExportJSON() data = %q, want []", exp.Data)
	}

	v = newConversationView(t)
	if err := v.SetFilter(ConversationFilter{UserEmail: "nobody"}); err != nil {
		t.Fatal(err)
	}
	if _, err := v.ExportCSV(); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("ExportCSV() on an empty filter result error = %v", err)
	}
}

func TestConversationCSV(t *testing.T) {
	v := newConversationView(t)
	if err := v.SetFilter(ConversationFilter{SearchText: "deploy"}); err != nil {
		t.Fatal(err)
	}

	exp, err := v.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if exp.Filename != "A2A_Admin_Logs_2024-03-04.csv" {
		t.Errorf("Filename = %q", exp.Filename)
	}

	rows, err := csv.NewReader(bytes.NewReader(exp.Data)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	want := []string{"2024/1/5 12:00:00", "B@x.com", "Deploy, please", `done "ok"`}
	if !reflect.DeepEqual(rows[1][:4], want) {
		t.Errorf("row = %q, want %q", rows[1][:4], want)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(rows[1][4]), &raw); err != nil || raw["_id"] != "2" {
		t.Errorf("raw_json column = %q", rows[1][4])
	}
}

func TestPlatformCSVErrorOnly(t *testing.T) {
	v := NewView(Platform, time.UTC)
	src := &fakePoster{reply: platformFixture}
	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com", "b@x.com"}); err != nil {
		t.Fatal(err)
	}
	if err := v.SetFilter(PlatformFilter{ErrorOnly: true}); err != nil {
		t.Fatal(err)
	}

	exp, err := v.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(exp.Data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows)-1 != 1 {
		t.Fatalf("exported %d rows, want 1", len(rows)-1)
	}
	if rows[1][4] != "Yes" {
		t.Errorf("error column = %q, want Yes", rows[1][4])
	}
	if rows[1][5] != `{"reason":"bad url"}` {
		t.Errorf("content column = %q", rows[1][5])
	}
}

func TestPlatformOperationFilter(t *testing.T) {
	v := NewView(Platform, time.UTC)
	src := &fakePoster{reply: platformFixture}
	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com"}); err != nil {
		t.Fatal(err)
	}
	if err := v.SetFilter(PlatformFilter{Operation: "DELETE"}); err != nil {
		t.Fatal(err)
	}
	got := v.Filtered()
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("Filtered() = %+v", got)
	}
}

func TestDownloadFlagMinimumDuration(t *testing.T) {
	v := NewView(Conversations, time.UTC, WithMinLoading(50*time.Millisecond))
	src := &fakePoster{reply: conversationFixture}
	if _, err := v.Fetch(context.Background(), src, nil, []string{"a@x.com"}); err != nil {
		t.Fatal(err)
	}

	if _, err := v.ExportCSV(); err != nil {
		t.Fatal(err)
	}
	l := v.Loading()
	if !l.DownloadingCSV || l.DownloadingJSON {
		t.Errorf("Loading() = %+v right after export", l)
	}

	deadline := time.Now().Add(2 * time.Second)
	for v.Loading().DownloadingCSV {
		if time.Now().After(deadline) {
			t.Fatal("download flag never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUnparseableTimestampKept(t *testing.T) {
	records := []models.PlatformLog{{ID: "odd", Timestamp: "yesterday"}}
	got := Apply(Platform, records, PlatformFilter{StartDate: "2024-01-01"}, time.UTC)
	if len(got) != 1 {
		t.Errorf("record with unreadable timestamp was dropped")
	}
}
