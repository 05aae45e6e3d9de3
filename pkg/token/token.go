package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
)

// EnrollmentChecker reports whether a student may join a course session.
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, email, courseID string) (bool, error)
}

var (
	// ErrMissingFields means room or identity was not supplied.
	ErrMissingFields = errors.New("room and identity are required")
	// ErrMissingEnrollmentInfo means a student request lacked email or courseId.
	ErrMissingEnrollmentInfo = errors.New("email and courseId are required for students")
	// ErrNotEnrolled means the student is not enrolled in the course.
	ErrNotEnrolled = errors.New("student is not enrolled in this course")
	// ErrEnrollmentUnavailable means no enrollment backend is configured, so
	// student requests cannot be verified.
	ErrEnrollmentUnavailable = errors.New("enrollment verification is not available")
)

// Request is a join-token request. Metadata is an opaque JSON string carried
// into the token verbatim; role, email and courseId are read from it.
type Request struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
	Metadata string `json:"metadata"`
}

type requestMeta struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	CourseID string `json:"courseId"`
}

// Issuer signs LiveKit access tokens with role-based grants. Instructors can
// control recording; students must pass an enrollment check before any token
// is issued.
type Issuer struct {
	apiKey     string
	apiSecret  string
	ttl        time.Duration
	enrollment EnrollmentChecker
}

// NewIssuer builds an Issuer. A nil enrollment checker disables student
// verification; student requests are then rejected rather than waved through.
func NewIssuer(apiKey, apiSecret string, ttl time.Duration, enrollment EnrollmentChecker) *Issuer {
	return &Issuer{apiKey: apiKey, apiSecret: apiSecret, ttl: ttl, enrollment: enrollment}
}

// Issue validates the request and returns a signed JWT.
func (i *Issuer) Issue(ctx context.Context, req Request) (string, error) {
	if req.Room == "" || req.Identity == "" {
		return "", ErrMissingFields
	}

	var meta requestMeta
	if req.Metadata != "" {
		if err := json.Unmarshal([]byte(req.Metadata), &meta); err != nil {
			return "", fmt.Errorf("invalid metadata: %w", err)
		}
	}

	role := strings.ToUpper(meta.Role)
	isInstructor := role == "INSTRUCTOR" || role == "INSTITUTE"
	isStudent := role == "STUDENT"

	if isStudent {
		if meta.Email == "" || meta.CourseID == "" {
			return "", ErrMissingEnrollmentInfo
		}
		if i.enrollment == nil {
			return "", ErrEnrollmentUnavailable
		}
		enrolled, err := i.enrollment.IsEnrolled(ctx, meta.Email, meta.CourseID)
		if err != nil {
			return "", fmt.Errorf("checking enrollment: %w", err)
		}
		if !enrolled {
			return "", ErrNotEnrolled
		}
	}

	grant := &auth.VideoGrant{
		RoomJoin:   true,
		Room:       req.Room,
		RoomRecord: isInstructor, // only instructors control recording
	}
	grant.SetCanSubscribe(true)
	grant.SetCanPublish(true)
	grant.SetCanPublishData(true)
	grant.CanPublishSources = publishSources(isInstructor, isStudent)

	at := auth.NewAccessToken(i.apiKey, i.apiSecret).
		SetIdentity(req.Identity).
		AddGrant(grant).
		SetMetadata(req.Metadata).
		SetValidFor(i.ttl)

	signed, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	logger.Info("Issued join token",
		logger.String("room", req.Room),
		logger.String("identity", req.Identity),
		logger.String("role", role))
	return signed, nil
}

func publishSources(isInstructor, isStudent bool) []string {
	if isInstructor || isStudent {
		return []string{"microphone", "camera", "screen_share", "screen_share_audio"}
	}
	// Default policy for other roles: mic and camera only.
	return []string{"microphone", "camera"}
}
