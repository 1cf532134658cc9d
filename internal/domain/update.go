package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpdateKind distinguishes chat updates forwarded by the gateway.
type UpdateKind string

const (
	UpdateDocument UpdateKind = "document"
	UpdateCommand  UpdateKind = "command"
)

// ReplyKind distinguishes replies sent back to the gateway.
type ReplyKind string

const (
	ReplyText   ReplyKind = "text"
	ReplyPhoto  ReplyKind = "photo"
	ReplyAction ReplyKind = "action" // chat action such as "upload_photo"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Update is one user action in a chat session. Document bytes travel
// base64-encoded in JSON.
type Update struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Kind      UpdateKind `json:"kind"`
	Command   string     `json:"command,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	Document  []byte     `json:"document,omitempty"`
}

// Reply is a message for the gateway to deliver into a chat session.
type Reply struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	InReplyTo   string    `json:"in_reply_to,omitempty"`
	Kind        ReplyKind `json:"kind"`
	Text        string    `json:"text,omitempty"`
	Photo       []byte    `json:"photo,omitempty"`
	Caption     string    `json:"caption,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ParseUpdate deserializes a RawEvent's value into an Update. A missing
// session falls back to the message key.
func ParseUpdate(raw RawEvent) (Update, error) {
	var upd Update
	if err := json.Unmarshal(raw.Value, &upd); err != nil {
		return Update{}, fmt.Errorf("parse update: %w", err)
	}
	if upd.SessionID == "" {
		upd.SessionID = string(raw.Key)
	}
	if upd.SessionID == "" {
		return Update{}, errors.New("parse update: missing session id")
	}
	switch upd.Kind {
	case UpdateDocument, UpdateCommand:
	default:
		return Update{}, fmt.Errorf("parse update: unknown kind %q", upd.Kind)
	}
	upd.Command = normalizeCommand(upd.Command)
	return upd, nil
}

// NewReply stamps a reply to upd with a deterministic ID and the current time.
// seq orders multiple replies to the same update.
func NewReply(upd Update, seq int, kind ReplyKind) Reply {
	return Reply{
		ID:          generateID(upd.SessionID, upd.ID, seq, kind),
		SessionID:   upd.SessionID,
		InReplyTo:   upd.ID,
		Kind:        kind,
		ProcessedAt: clock.Now(),
	}
}

// SerializeReply marshals a Reply into a sink message keyed by session so
// replies to one chat stay ordered on a single partition.
func SerializeReply(r Reply) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize reply: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.SessionID),
		Value: data,
		Headers: map[string]string{
			"reply_kind":   string(r.Kind),
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// normalizeCommand lower-cases a command and strips the bot mention,
// e.g. "/Build_Windrose@meteo_bot" -> "/build_windrose".
func normalizeCommand(cmd string) string {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	if f := strings.Fields(cmd); len(f) > 0 {
		cmd = f[0]
	}
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd
}

// generateID produces a deterministic reply ID so replays of the same
// update produce the same IDs downstream.
func generateID(sessionID, updateID string, seq int, kind ReplyKind) string {
	input := fmt.Sprintf("%s|%s|%d|%s", sessionID, updateID, seq, kind)
	hash := sha256.Sum256([]byte(input))
	return string(kind) + "-" + hex.EncodeToString(hash[:8])
}
