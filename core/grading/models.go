package grading

import "time"

// GradeStatus mirrors the backend's numeric status codes.
type GradeStatus int

const (
	// GradeStatusDraft is the placeholder record created when a grader
	// first opens a student, before any explicit save.
	GradeStatusDraft GradeStatus = 1
	// GradeStatusGraded marks an explicitly saved attempt.
	GradeStatusGraded GradeStatus = 2
)

// Grade is one scoring attempt for one student. A student keeps every
// attempt as history; the last element of the history is the current one.
type Grade struct {
	ID            int         `json:"id"`
	ExamStudentID int         `json:"examStudentId"`
	TotalScore    float64     `json:"totalScore"`
	Comment       string      `json:"comment"`
	GradedAt      time.Time   `json:"gradedAt"`
	GradedBy      string      `json:"gradedBy"`
	Attempt       int         `json:"attempt"`
	Status        GradeStatus `json:"status"`
}

// GradeDetail is the score and comment for one rubric criterion within one
// Grade. Exactly one exists per criterion per attempt.
type GradeDetail struct {
	ID               int     `json:"id"`
	GradeID          int     `json:"gradeId"`
	RubricID         int     `json:"rubricId"`
	Score            float64 `json:"score"`
	Comment          string  `json:"comment"`
	AutoDetectResult string  `json:"autoDetectResult"`
}
