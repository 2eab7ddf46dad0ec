package domain

import "time"

type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:180;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"index;not null" json:"question_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Name       string    `gorm:"size:80" json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Suggestion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Contact   string    `gorm:"size:180" json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
