package hostel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hostelhub/roomcast/models"
)

// ErrInvalidComplaint is returned when a complaint has no description.
var ErrInvalidComplaint = errors.New("invalid complaint")

const complaintColumns = `id, student_id, student_name, subject, description, status, created_at`

// CreateComplaint stores c as a new Pending complaint. Any status set by the
// caller is replaced.
func (s *Store) CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error) {
	c.Description = strings.TrimSpace(c.Description)
	if c.Description == "" {
		return models.Complaint{}, fmt.Errorf("%w: description is required", ErrInvalidComplaint)
	}
	c.ID = 0
	c.Subject = strings.TrimSpace(c.Subject)
	c.StudentName = strings.TrimSpace(c.StudentName)
	c.Status = models.ComplaintPending
	c.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	id, err := s.db.Insert(ctx, "complaints", c)
	if err != nil {
		return models.Complaint{}, fmt.Errorf("creating complaint: %w", err)
	}
	c.ID = id
	return c, nil
}

// ListComplaints returns every complaint, oldest first.
func (s *Store) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	out := []models.Complaint{}
	if err := s.db.Select(ctx, &out, `SELECT `+complaintColumns+` FROM complaints ORDER BY id`); err != nil {
		return nil, fmt.Errorf("listing complaints: %w", err)
	}
	return out, nil
}

// SubmitComplaint files c on behalf of the student registered as username.
// With no username the sender's own student_name is matched against usernames
// instead; if neither names a student the complaint is kept as sent.
func (s *Service) SubmitComplaint(ctx context.Context, username string, c models.Complaint) (models.Complaint, error) {
	lookup := username
	if lookup == "" {
		lookup = strings.TrimSpace(c.StudentName)
	}
	c.StudentID = 0
	if lookup != "" {
		st, err := s.store.FindByUsername(ctx, lookup)
		switch {
		case err == nil:
			c.StudentID = st.ID
			c.StudentName = displayName(st)
		case !errors.Is(err, ErrStudentNotFound):
			return models.Complaint{}, err
		}
	}
	saved, err := s.store.CreateComplaint(ctx, c)
	if err != nil {
		return models.Complaint{}, err
	}
	slog.Info("hostel: complaint filed", "complaint_id", saved.ID, "student_id", saved.StudentID)
	return saved, nil
}

func displayName(st models.Student) string {
	if st.FullName != "" {
		return st.FullName
	}
	return st.Username
}
