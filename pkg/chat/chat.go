package chat

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Attachment is a file reference carried with a chat message. Entries
// without a URL are dropped during normalization.
type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Message is one chat entry in a room's history.
type Message struct {
	ID             string       `json:"id"`
	RoomName       string       `json:"roomName"`
	SenderIdentity string       `json:"senderIdentity"`
	SenderName     string       `json:"senderName"`
	Text           string       `json:"text"`
	Timestamp      int64        `json:"timestamp"` // epoch ms
	Attachments    []Attachment `json:"attachments"`
}

// History is a per-room append log of chat messages.
type History interface {
	Append(ctx context.Context, msg Message) error
	Messages(ctx context.Context, roomName string) ([]Message, error)
}

// NewMessage assembles a message with a generated id, the current timestamp,
// and normalized attachments.
func NewMessage(roomName, senderIdentity, senderName, text string, attachments []Attachment) Message {
	return Message{
		ID:             messageID(roomName, senderIdentity),
		RoomName:       roomName,
		SenderIdentity: senderIdentity,
		SenderName:     senderName,
		Text:           text,
		Timestamp:      time.Now().UnixMilli(),
		Attachments:    NormalizeAttachments(attachments),
	}
}

// NormalizeAttachments drops attachments without a URL and never returns nil
// so histories marshal as [] rather than null.
func NormalizeAttachments(attachments []Attachment) []Attachment {
	out := make([]Attachment, 0, len(attachments))
	for _, a := range attachments {
		if a.URL == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func messageID(roomName, senderIdentity string) string {
	if senderIdentity == "" {
		senderIdentity = "anon"
	}
	seed := fmt.Sprintf("%s:%s:%d", roomName, senderIdentity, time.Now().UnixNano())
	hash := sha256.Sum256([]byte(seed))
	return fmt.Sprintf("%s-%s-%x", roomName, senderIdentity, hash[:6])
}
