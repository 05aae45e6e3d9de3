package chat

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryHistoryAppendAndList(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()

	first := NewMessage("math-101", "student-1", "Ada", "hello", nil)
	second := NewMessage("math-101", "student-2", "Grace", "hi", nil)
	other := NewMessage("bio-202", "student-3", "Tim", "hey", nil)

	for _, msg := range []Message{first, second, other} {
		if err := h.Append(ctx, msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	msgs, err := h.Messages(ctx, "math-101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected two messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hello" || msgs[1].Text != "hi" {
		t.Fatalf("expected append order to be preserved, got %+v", msgs)
	}

	empty, err := h.Messages(ctx, "unknown-room")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no messages for unknown room, got %d", len(empty))
	}
}

func TestNewMessageShape(t *testing.T) {
	msg := NewMessage("math-101", "student-1", "Ada", "hello", []Attachment{
		{URL: "https://files/x.pdf", Type: "application/pdf", Name: "x.pdf"},
		{Type: "image/png", Name: "no-url.png"},
	})

	if !strings.HasPrefix(msg.ID, "math-101-student-1-") {
		t.Fatalf("unexpected id %q", msg.ID)
	}
	if msg.Timestamp == 0 {
		t.Fatalf("expected a timestamp")
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Name != "x.pdf" {
		t.Fatalf("expected URL-less attachments to be dropped, got %+v", msg.Attachments)
	}
}

func TestNewMessageAnonymousSender(t *testing.T) {
	msg := NewMessage("math-101", "", "Ghost", "boo", nil)
	if !strings.HasPrefix(msg.ID, "math-101-anon-") {
		t.Fatalf("unexpected id %q", msg.ID)
	}
}

func TestNormalizeAttachmentsNeverNil(t *testing.T) {
	if got := NormalizeAttachments(nil); got == nil {
		t.Fatalf("expected an empty slice, got nil")
	}
}

func TestMessageIDsDiffer(t *testing.T) {
	a := NewMessage("math-101", "student-1", "Ada", "one", nil)
	b := NewMessage("math-101", "student-1", "Ada", "two", nil)
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, both were %q", a.ID)
	}
}
