package hostel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hostelhub/roomcast/internal/database"
	"github.com/hostelhub/roomcast/models"
)

var (
	// ErrStudentNotFound is returned when no student matches the lookup.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidStudent is returned for records missing required fields.
	ErrInvalidStudent = errors.New("invalid student")
	// ErrDuplicateStudent is returned when the username is already registered.
	ErrDuplicateStudent = errors.New("student already exists")
)

const studentColumns = `id, username, full_name, room_no, created_at, updated_at`

// Store persists students and their room history.
type Store struct {
	db database.DB
}

// NewStore returns a Store backed by db. The schema must already be migrated.
func NewStore(db database.DB) *Store {
	return &Store{db: db}
}

// Create inserts a student and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, username, fullName string) (models.Student, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Student{}, fmt.Errorf("%w: username is required", ErrInvalidStudent)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	st := models.Student{
		Username:  username,
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.db.Insert(ctx, "students", st)
	if database.IsDuplicate(err) {
		return models.Student{}, fmt.Errorf("%w: %s", ErrDuplicateStudent, username)
	}
	if err != nil {
		return models.Student{}, fmt.Errorf("creating student %q: %w", username, err)
	}
	st.ID = id
	return st, nil
}

// Get returns the student with id.
func (s *Store) Get(ctx context.Context, id int64) (models.Student, error) {
	var st models.Student
	err := s.db.Get(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	if database.IsNotFound(err) {
		return models.Student{}, ErrStudentNotFound
	}
	if err != nil {
		return models.Student{}, fmt.Errorf("loading student %d: %w", id, err)
	}
	return st, nil
}

// FindByUsername returns the student registered under username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.Student, error) {
	var st models.Student
	err := s.db.Get(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE username = ?`, username)
	if database.IsNotFound(err) {
		return models.Student{}, ErrStudentNotFound
	}
	if err != nil {
		return models.Student{}, fmt.Errorf("loading student %q: %w", username, err)
	}
	return st, nil
}

// List returns all students ordered by id.
func (s *Store) List(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := s.db.Select(ctx, &out, `SELECT `+studentColumns+` FROM students ORDER BY id`); err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	return out, nil
}

// RecordAssignment appends roomNo to the student's history and makes it
// their current room.
func (s *Store) RecordAssignment(ctx context.Context, studentID int64, roomNo string) (models.RoomAssignment, error) {
	st, err := s.Get(ctx, studentID)
	if err != nil {
		return models.RoomAssignment{}, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	a := models.RoomAssignment{StudentID: studentID, RoomNo: roomNo, AssignedAt: now}
	id, err := s.db.Insert(ctx, "room_assignments", a)
	if err != nil {
		return models.RoomAssignment{}, fmt.Errorf("recording assignment: %w", err)
	}
	a.ID = id

	st.RoomNo = roomNo
	st.UpdatedAt = now
	if err := s.db.Update(ctx, "students", st, "id = ?", studentID); err != nil {
		return models.RoomAssignment{}, fmt.Errorf("updating student %d: %w", studentID, err)
	}
	return a, nil
}

// Assignments returns the student's room history, newest first.
func (s *Store) Assignments(ctx context.Context, studentID int64) ([]models.RoomAssignment, error) {
	var out []models.RoomAssignment
	err := s.db.Select(ctx, &out,
		`SELECT id, student_id, room_no, assigned_at FROM room_assignments
		  WHERE student_id = ? ORDER BY id DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments for %d: %w", studentID, err)
	}
	return out, nil
}
