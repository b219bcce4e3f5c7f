package models

import (
	"time"
)

// Post represents a classified ad. ImgPath is the directory holding the
// post's images ("uploads/posts/<id>"); it is owned exclusively by this post
// and removed together with it.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"-"`
	Title       string    `gorm:"size:80;not null" json:"title"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string    `gorm:"size:1500" json:"description"`
	ImgPath     string    `gorm:"size:255" json:"-"`
	CreatedAt   time.Time `json:"time"`
}
