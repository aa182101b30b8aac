package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FeedbackItem is one graded answer. Received/Total mirror the grading
// service's "received/total" mark pair after normalization.
type FeedbackItem struct {
	Question   int     `json:"question"`
	Received   float64 `json:"received"`
	Total      float64 `json:"total"`
	Reason     string  `json:"reason"`
	HasDiagram bool    `json:"has_diagram"`
}

// Score holds the authoritative result for one (student, course) pair.
// The composite unique index enforces at most one row per pair even under
// concurrent submissions.
type Score struct {
	ID                      uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID               string         `gorm:"not null;column:student_id;uniqueIndex:idx_score_student_course" json:"student_id"`
	CourseID                uuid.UUID      `gorm:"type:uuid;not null;column:course_id;uniqueIndex:idx_score_student_course" json:"course_id"`
	Course                  *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	TotalMarks              float64        `gorm:"not null;column:total_marks" json:"total_marks"`
	MaxMarks                float64        `gorm:"not null;column:max_marks" json:"max_marks"`
	Percentage              float64        `gorm:"not null;column:percentage" json:"percentage"`
	Feedback                datatypes.JSON `gorm:"column:feedback;type:jsonb" json:"feedback"`
	SheetURL                string         `gorm:"column:sheet_url" json:"sheet_url"`
	GradingTeacherNaturalID string         `gorm:"not null;column:grading_teacher_natural_id" json:"grading_teacher_natural_id"`
	CreatedAt               time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Score) TableName() string {
	return "score"
}
