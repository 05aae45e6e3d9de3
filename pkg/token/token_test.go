package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testKey    = "devkey"
	testSecret = "secret-at-least-32-characters-long"
)

type fakeEnrollment struct {
	enrolled map[string]bool
	err      error
}

func (f *fakeEnrollment) IsEnrolled(ctx context.Context, email, courseID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.enrolled[email+"/"+courseID], nil
}

func decodeClaims(t *testing.T, signed string) jwt.MapClaims {
	t.Helper()

	tok, err := jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if !tok.Valid {
		t.Fatalf("expected a valid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", tok.Claims)
	}
	return claims
}

func videoGrant(t *testing.T, claims jwt.MapClaims) map[string]any {
	t.Helper()
	video, ok := claims["video"].(map[string]any)
	if !ok {
		t.Fatalf("expected a video grant, got %T", claims["video"])
	}
	return video
}

func TestIssueInstructorCanRecord(t *testing.T) {
	issuer := NewIssuer(testKey, testSecret, time.Hour, nil)

	signed, err := issuer.Issue(context.Background(), Request{
		Room:     "math-101",
		Identity: "teacher-1",
		Metadata: `{"role":"INSTRUCTOR"}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims := decodeClaims(t, signed)
	if claims["sub"] != "teacher-1" {
		t.Fatalf("expected subject teacher-1, got %v", claims["sub"])
	}
	if claims["iss"] != testKey {
		t.Fatalf("expected issuer %q, got %v", testKey, claims["iss"])
	}

	video := videoGrant(t, claims)
	if video["room"] != "math-101" {
		t.Fatalf("expected room grant, got %v", video["room"])
	}
	if video["roomRecord"] != true {
		t.Fatalf("expected instructors to get roomRecord")
	}
	sources, ok := video["canPublishSources"].([]any)
	if !ok || len(sources) != 4 {
		t.Fatalf("expected four publish sources, got %v", video["canPublishSources"])
	}
}

func TestIssueDefaultRoleCannotRecord(t *testing.T) {
	issuer := NewIssuer(testKey, testSecret, time.Hour, nil)

	signed, err := issuer.Issue(context.Background(), Request{Room: "math-101", Identity: "guest-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	video := videoGrant(t, decodeClaims(t, signed))
	if rec, ok := video["roomRecord"]; ok && rec == true {
		t.Fatalf("expected guests to lack roomRecord, got %v", rec)
	}
	sources, _ := video["canPublishSources"].([]any)
	if len(sources) != 2 {
		t.Fatalf("expected mic and camera only, got %v", sources)
	}
}

func TestIssueStudentRequiresEnrollment(t *testing.T) {
	enrollment := &fakeEnrollment{enrolled: map[string]bool{"a@b.edu/course-1": true}}
	issuer := NewIssuer(testKey, testSecret, time.Hour, enrollment)

	if _, err := issuer.Issue(context.Background(), Request{
		Room:     "math-101",
		Identity: "student-1",
		Metadata: `{"role":"STUDENT","email":"a@b.edu","courseId":"course-1"}`,
	}); err != nil {
		t.Fatalf("expected the enrolled student to get a token, got %v", err)
	}

	_, err := issuer.Issue(context.Background(), Request{
		Room:     "math-101",
		Identity: "student-2",
		Metadata: `{"role":"STUDENT","email":"x@b.edu","courseId":"course-1"}`,
	})
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestIssueStudentMissingEnrollmentInfo(t *testing.T) {
	issuer := NewIssuer(testKey, testSecret, time.Hour, &fakeEnrollment{})

	_, err := issuer.Issue(context.Background(), Request{
		Room:     "math-101",
		Identity: "student-1",
		Metadata: `{"role":"STUDENT"}`,
	})
	if !errors.Is(err, ErrMissingEnrollmentInfo) {
		t.Fatalf("expected ErrMissingEnrollmentInfo, got %v", err)
	}
}

func TestIssueStudentWithoutBackend(t *testing.T) {
	issuer := NewIssuer(testKey, testSecret, time.Hour, nil)

	_, err := issuer.Issue(context.Background(), Request{
		Room:     "math-101",
		Identity: "student-1",
		Metadata: `{"role":"STUDENT","email":"a@b.edu","courseId":"course-1"}`,
	})
	if !errors.Is(err, ErrEnrollmentUnavailable) {
		t.Fatalf("expected ErrEnrollmentUnavailable, got %v", err)
	}
}

func TestIssueValidatesRequiredFields(t *testing.T) {
	issuer := NewIssuer(testKey, testSecret, time.Hour, nil)

	if _, err := issuer.Issue(context.Background(), Request{Room: "math-101"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := issuer.Issue(context.Background(), Request{Identity: "x"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}
