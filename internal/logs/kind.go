package logs

import (
	"encoding/json"
	"time"

	"github.com/a2a-routing/console/internal/models"
)

// DisplayLayout formats timestamps in CSV exports
const DisplayLayout = "2006/1/2 15:04:05"

// Kind describes one family of logs: where it is fetched from, how its
// records are filtered and how they are laid out in a CSV export.
type Kind[R any, F Filter] struct {
	Name       string
	Endpoint   string
	FilePrefix string

	Timestamp func(R) string
	Owner     func(R) string
	// Match applies the kind-specific predicates; window and owner are
	// handled by the pipeline.
	Match func(R, F) bool

	Header []string
	Row    func(R, *time.Location) []string
}

// Conversations are agent conversation transcripts
var Conversations = &Kind[models.ConversationLog, ConversationFilter]{
	Name:       "conversations",
	Endpoint:   "/admin/logs",
	FilePrefix: "A2A_Admin_Logs",
	Timestamp:  func(l models.ConversationLog) string { return l.Timestamp },
	Owner:      func(l models.ConversationLog) string { return l.UserEmail },
	Match: func(l models.ConversationLog, f ConversationFilter) bool {
		if f.SearchText == "" {
			return true
		}
		return containsFold(l.UserInput(), f.SearchText) || containsFold(l.AgentResponse(), f.SearchText)
	},
	Header: []string{"timestamp", "user_email", "user_input", "agent_response", "raw_json"},
	Row: func(l models.ConversationLog, loc *time.Location) []string {
		return []string{
			displayTime(l.Timestamp, loc),
			l.UserEmail,
			l.UserInput(),
			l.AgentResponse(),
			compactJSON(l),
		}
	},
}

// Platform are audit records of platform operations
var Platform = &Kind[models.PlatformLog, PlatformFilter]{
	Name:       "platform",
	Endpoint:   "/admin/platform-logs",
	FilePrefix: "A2A_Platform_Logs",
	Timestamp:  func(l models.PlatformLog) string { return l.Timestamp },
	Owner:      func(l models.PlatformLog) string { return l.Email },
	Match: func(l models.PlatformLog, f PlatformFilter) bool {
		if f.Operation != "" && !containsFold(l.EventName, f.Operation) {
			return false
		}
		if f.ErrorOnly && !l.Error {
			return false
		}
		return true
	},
	Header: []string{"timestamp", "email", "event_name", "summary", "error", "content"},
	Row: func(l models.PlatformLog, loc *time.Location) []string {
		content := ""
		if l.HasContent() {
			content = compactJSON(l.Content)
		}
		return []string{
			displayTime(l.Timestamp, loc),
			l.Email,
			l.EventName,
			l.Summary,
			yesNo(l.Error),
			content,
		}
	},
}

// Apply returns the records passing every active predicate, in source order
func Apply[R any, F Filter](k *Kind[R, F], records []R, f F, loc *time.Location) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if k.matches(r, f, loc) {
			out = append(out, r)
		}
	}
	return out
}

func (k *Kind[R, F]) matches(r R, f F, loc *time.Location) bool {
	if !inWindow(k.Timestamp(r), f.Window(), loc) {
		return false
	}
	if owner := f.Owner(); owner != "" && !containsFold(k.Owner(r), owner) {
		return false
	}
	return k.Match(r, f)
}

func displayTime(ts string, loc *time.Location) string {
	t, ok := ParseTimestamp(ts, loc)
	if !ok {
		return ts
	}
	return t.In(loc).Format(DisplayLayout)
}

func compactJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
