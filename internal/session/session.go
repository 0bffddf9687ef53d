// Package session owns the ordered conversation history for one workspace
// and its persistence on disk.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Message roles. Role sequencing follows what chat-completion endpoints
// accept: one system message at the head, then user/assistant/tool
// interleavings.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single entry in a conversation. TurnID groups the messages
// produced by one agent turn; plain chat messages leave it empty.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	TurnID    string    `json:"turn_id,omitempty"`
}

// NewMessage builds a timestamped message.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// NewTurnMessage builds a timestamped message tagged with the agent turn
// that produced it.
func NewTurnMessage(role, content, turnID string) Message {
	m := NewMessage(role, content)
	m.TurnID = turnID
	return m
}

// Session is an append-only ordered conversation owned by exactly one
// running agent loop at a time.
type Session struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// New creates an empty session.
func New(id string) *Session {
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, LastActiveAt: now}
}

// Append adds a message to the history and bumps the activity timestamp.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.LastActiveAt = time.Now()
}

// SetSystemPrompt installs or refreshes the system message at the head of
// the history. The system message is rebuilt from config every turn, so a
// prompt switch takes effect immediately.
func (s *Session) SetSystemPrompt(content string) {
	msg := NewMessage(RoleSystem, content)
	if len(s.Messages) > 0 && s.Messages[0].Role == RoleSystem {
		s.Messages[0] = msg
		return
	}
	s.Messages = append([]Message{msg}, s.Messages...)
}

// Clear drops all messages, including the system head.
func (s *Session) Clear() {
	s.Messages = nil
	s.LastActiveAt = time.Now()
}

// Store persists sessions as JSON files in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir (created lazily on save).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (st *Store) path(key string) string {
	return filepath.Join(st.dir, key+".json")
}

// Load reads a persisted session. A missing file is not an error: the
// caller gets a fresh session for the key, matching create-on-first-turn
// semantics.
func (st *Store) Load(key string) (*Session, error) {
	data, err := os.ReadFile(st.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return New(key), nil
		}
		return nil, fmt.Errorf("could not read session file %s: %w", st.path(key), err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse session file %s: %w", st.path(key), err)
	}
	if s.ID == "" {
		s.ID = key
	}
	return &s, nil
}

// Save writes the session to disk, creating the store directory on demand.
func (st *Store) Save(s *Session) error {
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return fmt.Errorf("could not create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return os.WriteFile(st.path(s.ID), data, 0644)
}

// List returns the keys of all saved sessions, sorted.
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// Remove deletes a saved session. Returns false when no file existed.
func (st *Store) Remove(key string) (bool, error) {
	err := os.Remove(st.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
