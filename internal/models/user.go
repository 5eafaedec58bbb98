package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a directory entry (contact card). Email is unique across the
// whole table; the index is the authority on duplicates, not application
// checks.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName string    `gorm:"size:50;not null" json:"firstName"`
	LastName  string    `gorm:"size:50;not null" json:"lastName"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:50;not null" json:"phone"`
	Address   string    `gorm:"size:200;not null" json:"address"`
	City      string    `gorm:"size:100;not null" json:"city"`
	State     string    `gorm:"size:50;not null" json:"state"`
	ZipCode   string    `gorm:"size:10;not null" json:"zipCode"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
