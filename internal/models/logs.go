package models

import (
	"encoding/json"
	"fmt"
)

// LogQuery is the body of POST /admin/logs and POST /admin/platform-logs
type LogQuery struct {
	UserEmails []string `json:"user_emails"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
}

// Part is one content part of a conversation turn
type Part struct {
	Text string `json:"text"`
}

// Turn is one entry of a conversation history
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// ConversationStatus holds the agent reply; message is either a string or
// an object with parts.
type ConversationStatus struct {
	Message json.RawMessage `json:"message,omitempty"`
}

// ConversationLog is a stored agent conversation.
// The record keeps the bytes it was decoded from so that exports reproduce
// the backend document exactly.
type ConversationLog struct {
	ID        string             `json:"_id"`
	Timestamp string             `json:"timestamp"`
	UserEmail string             `json:"user_email"`
	History   []Turn             `json:"history"`
	Status    ConversationStatus `json:"status"`

	raw json.RawMessage
}

type conversationLogAlias ConversationLog

// UnmarshalJSON decodes the known fields and remembers the original document
func (l *ConversationLog) UnmarshalJSON(data []byte) error {
	var a conversationLogAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid conversation log: %w", err)
	}
	*l = ConversationLog(a)
	l.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the original document when there is one
func (l ConversationLog) MarshalJSON() ([]byte, error) {
	if l.raw != nil {
		return l.raw, nil
	}
	return json.Marshal(conversationLogAlias(l))
}

// UserInput is the text of the first user turn
func (l ConversationLog) UserInput() string {
	for _, turn := range l.History {
		if turn.Role != "user" {
			continue
		}
		if len(turn.Parts) == 0 {
			return ""
		}
		return turn.Parts[0].Text
	}
	return ""
}

// AgentResponse is the agent reply text: the first part of the status
// message, the message itself when it is a plain string, or the message
// document when it has no text part.
func (l ConversationLog) AgentResponse() string {
	msg := l.Status.Message
	if len(msg) == 0 || string(msg) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(msg, &text); err == nil {
		return text
	}

	var structured struct {
		Parts []Part `json:"parts"`
	}
	if err := json.Unmarshal(msg, &structured); err == nil && len(structured.Parts) > 0 && structured.Parts[0].Text != "" {
		return structured.Parts[0].Text
	}
	return string(msg)
}

// PlatformLog is an audit record of an operation on the platform
type PlatformLog struct {
	ID        string          `json:"_id,omitempty"`
	Email     string          `json:"email"`
	EventName string          `json:"event_name"`
	Summary   string          `json:"summary,omitempty"`
	Timestamp string          `json:"timestamp"`
	Error     bool            `json:"error"`
	Content   json.RawMessage `json:"content,omitempty"`

	raw json.RawMessage
}

type platformLogAlias PlatformLog

// UnmarshalJSON decodes the known fields and remembers the original document
func (l *PlatformLog) UnmarshalJSON(data []byte) error {
	var a platformLogAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid platform log: %w", err)
	}
	*l = PlatformLog(a)
	l.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the original document when there is one
func (l PlatformLog) MarshalJSON() ([]byte, error) {
	if l.raw != nil {
		return l.raw, nil
	}
	return json.Marshal(platformLogAlias(l))
}

// HasContent reports whether the record carries a non-null content document
func (l PlatformLog) HasContent() bool {
	return len(l.Content) > 0 && string(l.Content) != "null"
}
