package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound means no attendance record exists for the session.
var ErrNotFound = errors.New("attendance not found for this session")

// ErrMissingFields means the payload lacked sessionId or roomName.
var ErrMissingFields = errors.New("sessionId and roomName are required")

// Payload is the attendance document the UI submits. Participants are kept
// opaque: the UI owns joinedAt/leftAt semantics and the server stores the
// document as-is, replacing any previous one for the same session.
type Payload struct {
	SessionID    string          `json:"sessionId"`
	RoomName     string          `json:"roomName"`
	CourseID     string          `json:"courseId,omitempty"`
	CourseName   string          `json:"courseName,omitempty"`
	Participants json.RawMessage `json:"participants,omitempty"`
}

// Record is the persisted row: one per session, latest payload wins.
type Record struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"column:session_id;uniqueIndex;size:128"`
	RoomName   string    `gorm:"column:room_name;size:255"`
	CourseID   string    `gorm:"column:course_id;size:128"`
	CourseName string    `gorm:"column:course_name;size:255"`
	Data       string    `gorm:"column:data;type:json"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (Record) TableName() string { return "session_attendance" }

// User and Enrollment map the tables owned by the main course platform.
// This service only reads them for the enrollment gate; it never migrates
// or writes them.
type User struct {
	ProfileID string `gorm:"column:profile_id;primaryKey"`
	Email     string `gorm:"column:email"`
}

func (User) TableName() string { return "users" }

type Enrollment struct {
	StudentID string `gorm:"column:student_id;primaryKey"`
	CourseID  string `gorm:"column:course_id;primaryKey"`
	Enrolled  bool   `gorm:"column:enrolled"`
}

func (Enrollment) TableName() string { return "enroll_course" }

// Open connects to MySQL and migrates the attendance table.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating session_attendance: %w", err)
	}
	return db, nil
}

// Store persists attendance documents and answers enrollment checks.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save upserts the payload, keyed by session id. No server-side merging:
// the incoming document replaces the stored one.
func (s *Store) Save(ctx context.Context, p Payload) error {
	if p.SessionID == "" || p.RoomName == "" {
		return ErrMissingFields
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling attendance payload: %w", err)
	}

	rec := Record{
		SessionID:  p.SessionID,
		RoomName:   p.RoomName,
		CourseID:   p.CourseID,
		CourseName: p.CourseName,
		Data:       string(data),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"room_name", "course_id", "course_name", "data"}),
	}).Create(&rec).Error
}

// Latest returns the most recent attendance document for a session.
func (s *Store) Latest(ctx context.Context, sessionID string) (*Payload, error) {
	if sessionID == "" {
		return nil, ErrMissingFields
	}

	var rec Record
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal([]byte(rec.Data), &p); err != nil {
		return nil, fmt.Errorf("parsing stored attendance: %w", err)
	}
	return &p, nil
}

// IsEnrolled reports whether the email belongs to a user enrolled in the
// course. Unknown emails are simply not enrolled, not an error.
func (s *Store) IsEnrolled(ctx context.Context, email, courseID string) (bool, error) {
	var user User
	err := s.db.WithContext(ctx).
		Select("profile_id").
		Where("email = ?", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var count int64
	err = s.db.WithContext(ctx).
		Model(&Enrollment{}).
		Where("student_id = ? AND course_id = ? AND enrolled = ?", user.ProfileID, courseID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
