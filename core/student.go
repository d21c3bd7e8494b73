package core

// Student is the snapshot of a student as shown on a dashboard.
// ProfileImage is either a ready-to-use URL or an opaque storage file id.
type Student struct {
	ID           int    `json:"idStudent"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}
