package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Record{}, &User{}, &Enrollment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewStore(db)
}

func TestSaveAndLatest(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	payload := Payload{
		SessionID:    "sess-1",
		RoomName:     "math-101",
		CourseID:     "course-9",
		CourseName:   "Algebra",
		Participants: json.RawMessage(`[{"identity":"student-1","joinedAt":1,"leftAt":2}]`),
	}
	if err := store.Save(ctx, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Latest(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RoomName != "math-101" || got.CourseName != "Algebra" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if string(got.Participants) != string(payload.Participants) {
		t.Fatalf("expected participants to round-trip, got %s", got.Participants)
	}
}

func TestSaveReplacesExistingSession(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Payload{SessionID: "sess-1", RoomName: "math-101"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Save(ctx, Payload{SessionID: "sess-1", RoomName: "math-101-moved", CourseID: "c2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	if err := store.db.Model(&Record{}).Count(&count).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per session, got %d", count)
	}

	got, err := store.Latest(ctx, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RoomName != "math-101-moved" {
		t.Fatalf("expected the latest payload to win, got %+v", got)
	}
}

func TestLatestNotFound(t *testing.T) {
	store := setupStore(t)

	if _, err := store.Latest(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveValidatesRequiredFields(t *testing.T) {
	store := setupStore(t)

	if err := store.Save(context.Background(), Payload{RoomName: "math-101"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if err := store.Save(context.Background(), Payload{SessionID: "sess-1"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestIsEnrolled(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.db.Create(&User{ProfileID: "u-1", Email: "a@b.edu"})
	store.db.Create(&Enrollment{StudentID: "u-1", CourseID: "course-9", Enrolled: true})
	store.db.Create(&Enrollment{StudentID: "u-1", CourseID: "course-0", Enrolled: false})

	cases := []struct {
		email, course string
		want          bool
	}{
		{"a@b.edu", "course-9", true},
		{"a@b.edu", "course-0", false},  // enrollment revoked
		{"a@b.edu", "course-404", false}, // never enrolled
		{"nobody@b.edu", "course-9", false},
	}
	for _, tc := range cases {
		got, err := store.IsEnrolled(ctx, tc.email, tc.course)
		if err != nil {
			t.Fatalf("unexpected error for %s/%s: %v", tc.email, tc.course, err)
		}
		if got != tc.want {
			t.Fatalf("expected %v for %s/%s, got %v", tc.want, tc.email, tc.course, got)
		}
	}
}
