package academic

import "github.com/trezcool/mahudhurio/core"

type Division struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type Program struct {
	ID         int    `json:"id"`
	DivisionID int    `json:"divisionId"`
	Name       string `json:"name"`
	Code       string `json:"code,omitempty"`
}

type Group struct {
	ID           int    `json:"id"`
	ProgramID    int    `json:"programId"`
	Name         string `json:"name"`
	AcademicYear string `json:"academicYear,omitempty"`
	TeacherID    int    `json:"teacherId,omitempty"`
}

// Enrollment of a student in a group, as sent by the academic service.
type Enrollment struct {
	ID         int          `json:"id"`
	GroupID    int          `json:"groupId"`
	Status     string       `json:"status,omitempty"`
	EnrolledAt string       `json:"enrolledAt,omitempty"`
	Student    core.Student `json:"student"`
}

// EnrollmentView is an Enrollment with the student's resolved profile image.
type EnrollmentView struct {
	Enrollment
	ImageURL string `json:"imageUrl"`
}
