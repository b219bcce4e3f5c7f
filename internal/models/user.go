// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account. A user owns exactly one Profile and
// any number of Posts; both are removed when the user row is deleted.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:120;unique;not null" json:"email"`
	Password  string    `gorm:"size:256;not null" json:"-"`
	CreatedAt time.Time `json:"reg_time"`
	Profile   *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Posts     []Post    `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}

// Profile holds the public-facing data of a user. Created together with its
// User at registration; ImgPath points at the avatar file relative to the
// application working directory (e.g. "uploads/avas/3_ava.png") and is empty
// until the first avatar upload.
type Profile struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	UserID      uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Name        string `gorm:"size:50" json:"name"`
	Surname     string `gorm:"size:50" json:"surname"`
	Age         int    `json:"age"`
	Bio         string `gorm:"size:500" json:"bio"`
	PhoneNumber string `gorm:"size:14" json:"phone_number"`
	Location    string `gorm:"size:100" json:"location"`
	ImgPath     string `gorm:"size:255" json:"img_path"`
}
