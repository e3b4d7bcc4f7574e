package model

import (
	"math"
	"strings"
	"time"
)

type Note struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	SubjectID     string     `db:"subject_id" json:"subject_id"`
	CourseID      string     `db:"course_id" json:"course_id"`
	SemesterID    string     `db:"semester_id" json:"semester_id"`
	UploadedBy    string     `db:"uploaded_by" json:"uploaded_by"`
	Tags          string     `db:"tags" json:"tags"` // Comma-separated
	FileName      string     `db:"file_name" json:"file_name"`
	FileExt       string     `db:"file_ext" json:"file_ext"`
	FileSize      int64      `db:"file_size" json:"file_size"` // Bytes
	StoragePath   string     `db:"storage_path" json:"-"`
	Status        NoteStatus `db:"status" json:"status"`
	DownloadCount int64      `db:"download_count" json:"download_count"`
	ViewCount     int64      `db:"view_count" json:"view_count"`
	ApprovedBy    *string    `db:"approved_by" json:"approved_by,omitempty"` // Set iff status is approved
	ApprovedAt    *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

func (n *Note) IsApproved() bool {
	return n.Status == NoteStatusApproved
}

// ApprovalConsistent reports whether the approval stamp agrees with the status.
func (n *Note) ApprovalConsistent() bool {
	stamped := n.ApprovedBy != nil && n.ApprovedAt != nil
	unstamped := n.ApprovedBy == nil && n.ApprovedAt == nil
	if n.IsApproved() {
		return stamped
	}
	return unstamped
}

func (n *Note) TagList() []string {
	var tags []string
	for _, t := range strings.Split(n.Tags, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (n *Note) FileSizeMB() float64 {
	return math.Round(float64(n.FileSize)/(1<<20)*100) / 100
}

// NoteDraft is what an uploader submits alongside the file.
type NoteDraft struct {
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description" validate:"required"`
	CourseID    string `json:"course_id" validate:"required"`
	SemesterID  string `json:"semester_id" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
	Tags        string `json:"tags" validate:"max=500"`
}

// NoteFilter narrows note listings. Query is a case-insensitive substring
// match on title, description and tags.
type NoteFilter struct {
	Query      string
	CourseID   string
	SemesterID string
	SubjectID  string
	Status     NoteStatus
	UploadedBy string
	Limit      int
}

type NoteDetail struct {
	Note            *Note   `json:"note"`
	DescriptionHTML string  `json:"description_html"`
	AverageRating   float64 `json:"average_rating"`
	RatingCount     int     `json:"rating_count"`
	MyRating        *Rating `json:"my_rating,omitempty"`
}

type Download struct {
	ID           string    `db:"id" json:"id"`
	NoteID       string    `db:"note_id" json:"note_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloaded_at"`
}
