package types

import (
	"time"

	"github.com/google/uuid"
)

// Teacher is the grader identity. NaturalID is the teacher-chosen handle
// used for lookups; PasswordHash is empty for externally-authenticated
// accounts. ExternalIDRef is attached at most once, the first time an
// external login resolves to an existing email.
type Teacher struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	NaturalID     string    `gorm:"uniqueIndex;not null;column:natural_id" json:"natural_id"`
	Email         string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash  string    `gorm:"column:password_hash" json:"-"`
	ExternalIDRef string    `gorm:"column:external_id_ref" json:"external_id_ref,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Teacher) TableName() string {
	return "teacher"
}
