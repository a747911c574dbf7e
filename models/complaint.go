package models

// Complaint is a maintenance or conduct issue raised by a student.
type Complaint struct {
	ID          int64  `json:"id"           db:"id"`
	StudentID   int64  `json:"student_id"   db:"student_id"`   // 0 when the sender could not be identified
	StudentName string `json:"student_name" db:"student_name"` // display name at submission time
	Subject     string `json:"subject"      db:"subject"`
	Description string `json:"description"  db:"description"`
	Status      string `json:"status"       db:"status"`
	CreatedAt   string `json:"created_at"   db:"created_at"` // RFC3339
}

// ComplaintPending is the status every new complaint starts in.
const ComplaintPending = "Pending"
