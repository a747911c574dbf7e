package hostel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hostelhub/roomcast/internal/notify"
	"github.com/hostelhub/roomcast/models"
)

// ErrInvalidRoom is returned when a room number is empty or malformed.
var ErrInvalidRoom = errors.New("invalid room number")

const maxRoomNoLen = 32

// Service is the domain entry point for room assignment. It announces every
// assignment to the student's live connections.
type Service struct {
	store *Store
	pub   notify.Publisher
}

// NewService creates a Service that persists through store and announces
// through pub.
func NewService(store *Store, pub notify.Publisher) *Service {
	return &Service{store: store, pub: pub}
}

// Store exposes the underlying student store.
func (s *Service) Store() *Store { return s.store }

// AssignRoom records roomNo for the student and publishes a room-assigned
// event. Whether anyone was listening does not affect the result.
func (s *Service) AssignRoom(ctx context.Context, studentID int64, roomNo string) (models.RoomAssignment, error) {
	roomNo = strings.TrimSpace(roomNo)
	if roomNo == "" || len(roomNo) > maxRoomNoLen {
		return models.RoomAssignment{}, fmt.Errorf("%w: %q", ErrInvalidRoom, roomNo)
	}
	a, err := s.store.RecordAssignment(ctx, studentID, roomNo)
	if err != nil {
		return models.RoomAssignment{}, err
	}
	s.pub.Publish(notify.RecipientID(studentID), notify.RoomAssigned(notify.RecipientID(studentID), roomNo))
	slog.Info("hostel: room assigned", "student_id", studentID, "room_no", roomNo)
	return a, nil
}
