package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a chat participant. On the client it is the locally stored profile
// record; on the dev server it is persisted by gorm.
type User struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// BeforeCreate is a GORM hook that generates a UUID if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
