package models

// Student is a hostel resident who can receive notifications.
// Field order matches the students table column order.
type Student struct {
	ID        int64  `json:"id"         db:"id"`
	Username  string `json:"username"   db:"username"`
	FullName  string `json:"full_name"  db:"full_name"`
	RoomNo    string `json:"room_no"    db:"room_no"`    // current room, empty if unassigned
	CreatedAt string `json:"created_at" db:"created_at"` // RFC3339
	UpdatedAt string `json:"updated_at" db:"updated_at"`
}

// RoomAssignment is one entry in a student's room history.
type RoomAssignment struct {
	ID         int64  `json:"id"          db:"id"`
	StudentID  int64  `json:"student_id"  db:"student_id"`
	RoomNo     string `json:"room_no"     db:"room_no"`
	AssignedAt string `json:"assigned_at" db:"assigned_at"`
}
