package gateway

import "github.com/hostelhub/roomcast/internal/notify"

// Status is a live snapshot of the notification gateway.
type Status struct {
	Recipients    int                  `json:"recipients"`
	Subscriptions int                  `json:"subscriptions"`
	Dispatch      notify.DispatchStats `json:"dispatch"`
	UptimeSeconds int64                `json:"uptime_seconds"`
}

// assignRoomRequest is the body for POST /api/students/{id}/room.
type assignRoomRequest struct {
	RoomNo string `json:"room_no"`
}

// createStudentRequest is the body for POST /api/students.
type createStudentRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// submitComplaintRequest is the body for POST /api/student/complaints.
// Status is not accepted; new complaints are always Pending.
type submitComplaintRequest struct {
	StudentName string `json:"student_name"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}
