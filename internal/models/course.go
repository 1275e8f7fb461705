package models

import "time"

// Course is one teaching assignment: a subject taught by a teacher to a class
// for a semester of a school year.
type Course struct {
	ID        int64     `db:"id" json:"id"`
	SubjectID int64     `db:"subject_id" json:"subject_id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	ClassID   int64     `db:"class_id" json:"class_id"`
	Semester  string    `db:"semester" json:"semester"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail carries the joined display names used by listings.
type CourseDetail struct {
	Course
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	ClassName   string `db:"class_name" json:"class_name"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	ClassID   *int64
	TeacherID *int64
	SubjectID *int64
	Year      *int
	Page      int
	PageSize  int
}

// CourseInput is the create/update payload for a course.
type CourseInput struct {
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
	TeacherID int64  `json:"teacher_id" validate:"required,gt=0"`
	ClassID   int64  `json:"class_id" validate:"required,gt=0"`
	Semester  string `json:"semester" validate:"required,max=20"`
	Year      int    `json:"year" validate:"required,gte=1900,lte=2200"`
}
