package models

import "time"

// GradeType tags the kind of assessment a grade was recorded for.
type GradeType string

const (
	GradeTypeHomework GradeType = "homework"
	GradeTypeQuiz     GradeType = "quiz"
	GradeTypeExam     GradeType = "exam"
	GradeTypeProject  GradeType = "project"
)

// DefaultMaxGrade is the scale grades are recorded on unless stated otherwise.
const DefaultMaxGrade = 20.0

// Grade represents a single mark for a student in a course.
type Grade struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	CourseID     int64     `db:"course_id" json:"course_id"`
	GradeValue   float64   `db:"grade_value" json:"grade_value"`
	MaxGrade     float64   `db:"max_grade" json:"max_grade"`
	GradeType    GradeType `db:"grade_type" json:"grade_type"`
	Comment      string    `db:"comment" json:"comment"`
	DateRecorded Date      `db:"date_recorded" json:"date_recorded"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GradeDetail carries the joined display names used by listings.
type GradeDetail struct {
	Grade
	StudentName string `db:"student_name" json:"student_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	ClassName   string `db:"class_name" json:"class_name"`
}

// GradeFilter narrows grade listings.
type GradeFilter struct {
	StudentID *int64
	CourseID  *int64
	Type      *GradeType
	Page      int
	PageSize  int
}

// GradeInput is the create/update payload for a grade. GradeValue is a
// pointer so that an explicit zero is distinguishable from a missing value.
type GradeInput struct {
	StudentID    int64     `json:"student_id" validate:"required,gt=0"`
	CourseID     int64     `json:"course_id" validate:"required,gt=0"`
	GradeValue   *float64  `json:"grade_value" validate:"required,gte=0"`
	MaxGrade     *float64  `json:"max_grade" validate:"omitempty,gt=0"`
	GradeType    GradeType `json:"grade_type" validate:"required,oneof=homework quiz exam project"`
	Comment      string    `json:"comment" validate:"max=1000"`
	DateRecorded *Date     `json:"date_recorded"`
}
