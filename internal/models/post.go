package models

import (
	"time"
)

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slug       string    `gorm:"uniqueIndex;size:191;not null" json:"slug"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Author     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Title      string    `gorm:"not null" json:"title"`
	Excerpt    string    `gorm:"size:500" json:"excerpt"`
	Content    string    `gorm:"type:text" json:"content"` // markdown
	ImageURL   string    `json:"image_url"`
	Published  bool      `gorm:"default:false;index" json:"published"`
	Views      int       `gorm:"default:0;not null" json:"views"` // 与 view 类型的 Engagement 行数保持一致
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
