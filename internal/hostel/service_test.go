package hostel

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelhub/roomcast/internal/config"
	"github.com/hostelhub/roomcast/internal/database"
	"github.com/hostelhub/roomcast/internal/notify"
	"github.com/hostelhub/roomcast/models"
)

type published struct {
	recipient notify.RecipientID
	event     notify.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) Publish(r notify.RecipientID, e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{r, e})
}

func newTestService(t *testing.T) (*Service, *fakePublisher) {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "hostel.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	pub := &fakePublisher{}
	return NewService(NewStore(db), pub), pub
}

func TestStoreCreateAndLookup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	st, err := svc.Store().Create(ctx, "  asha ", "Asha K")
	require.NoError(t, err)
	assert.Equal(t, "asha", st.Username)

	byName, err := svc.Store().FindByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, st.ID, byName.ID)

	byID, err := svc.Store().Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", byID.FullName)

	_, err = svc.Store().FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrStudentNotFound)
	_, err = svc.Store().Create(ctx, " ", "")
	assert.ErrorIs(t, err, ErrInvalidStudent)
}

func TestAssignRoomPersistsAndPublishes(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	st, err := svc.Store().Create(ctx, "ravi", "")
	require.NoError(t, err)

	_, err = svc.AssignRoom(ctx, st.ID, "A-1")
	require.NoError(t, err)
	a, err := svc.AssignRoom(ctx, st.ID, " B-12 ")
	require.NoError(t, err)
	assert.Equal(t, "B-12", a.RoomNo)

	got, err := svc.Store().Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "B-12", got.RoomNo)

	history, err := svc.Store().Assignments(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "B-12", history[0].RoomNo)
	assert.Equal(t, "A-1", history[1].RoomNo)

	require.Len(t, pub.sent, 2)
	last := pub.sent[1]
	assert.Equal(t, notify.RecipientID(st.ID), last.recipient)
	assert.Equal(t, notify.RoomAssigned(notify.RecipientID(st.ID), "B-12"), last.event)
}

func TestAssignRoomRejectsBadInput(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignRoom(ctx, 1, "  ")
	assert.ErrorIs(t, err, ErrInvalidRoom)

	_, err = svc.AssignRoom(ctx, 999, "A-1")
	assert.ErrorIs(t, err, ErrStudentNotFound)

	assert.Empty(t, pub.sent)
}

func TestImportRoster(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	_, err := svc.Store().Create(ctx, "existing", "")
	require.NoError(t, err)

	r, err := ParseRoster([]byte(`
students:
  - username: existing
    room_no: C-3
  - username: fresh
    full_name: Fresh Person
  - username: fresh
    full_name: Fresh Person
`))
	require.NoError(t, err)

	created, err := svc.Import(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	students, err := svc.Store().List(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "C-3", students[0].RoomNo)
	assert.Equal(t, "Fresh Person", students[1].FullName)
	assert.Len(t, pub.sent, 1)
}

func TestParseRosterRequiresUsername(t *testing.T) {
	_, err := ParseRoster([]byte("students:\n  - full_name: Nameless\n"))
	assert.ErrorIs(t, err, ErrInvalidStudent)

	_, err = ParseRoster([]byte("students: [::"))
	assert.ErrorContains(t, err, "parsing roster")
}

func TestStoreCreateDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Store().Create(ctx, "dup", "")
	require.NoError(t, err)

	_, err = svc.Store().Create(ctx, "dup", "Other")
	assert.ErrorIs(t, err, ErrDuplicateStudent)
}

func TestSubmitComplaintUsesStudentRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	asha, err := svc.Store().Create(ctx, "asha", "Asha K")
	require.NoError(t, err)
	_, err = svc.Store().Create(ctx, "ravi", "")
	require.NoError(t, err)

	c, err := svc.SubmitComplaint(ctx, "asha", models.Complaint{
		StudentName: "someone else",
		Subject:     "Fan",
		Description: " ceiling fan broken ",
		Status:      "Resolved",
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, asha.ID, c.StudentID)
	assert.Equal(t, "Asha K", c.StudentName)
	assert.Equal(t, models.ComplaintPending, c.Status)
	assert.Equal(t, "ceiling fan broken", c.Description)

	// Without a username the given name is matched against usernames.
	c, err = svc.SubmitComplaint(ctx, "", models.Complaint{StudentName: "ravi", Description: "leak"})
	require.NoError(t, err)
	assert.Equal(t, "ravi", c.StudentName)
	assert.NotZero(t, c.StudentID)

	c, err = svc.SubmitComplaint(ctx, "", models.Complaint{StudentName: "Visitor", Description: "noise"})
	require.NoError(t, err)
	assert.Equal(t, "Visitor", c.StudentName)
	assert.Zero(t, c.StudentID)

	_, err = svc.SubmitComplaint(ctx, "asha", models.Complaint{Description: "  "})
	assert.ErrorIs(t, err, ErrInvalidComplaint)

	all, err := svc.Store().ListComplaints(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Fan", all[0].Subject)
	for _, c := range all {
		assert.Equal(t, models.ComplaintPending, c.Status)
	}
}
