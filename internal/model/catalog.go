package model

import (
	"time"
)

type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	Slug        string    `db:"slug" json:"slug"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Semester struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Number int    `db:"number" json:"number"`
}

// Subject belongs to exactly one (course, semester) pair.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	CourseID    string    `db:"course_id" json:"course_id"`
	SemesterID  string    `db:"semester_id" json:"semester_id"`
	Description string    `db:"description" json:"description"`
	Slug        string    `db:"slug" json:"slug"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type NewCourse struct {
	Name        string `json:"name" validate:"required,max=200"`
	Code        string `json:"code" validate:"required,max=20"`
	Description string `json:"description"`
}

type NewSemester struct {
	Name   string `json:"name" validate:"required,max=50"`
	Number int    `json:"number" validate:"required,min=1"`
}

type NewSubject struct {
	Name        string `json:"name" validate:"required,max=200"`
	Code        string `json:"code" validate:"required,max=20"`
	CourseID    string `json:"course_id" validate:"required"`
	SemesterID  string `json:"semester_id" validate:"required"`
	Description string `json:"description"`
}
