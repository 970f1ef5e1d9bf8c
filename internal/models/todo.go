package models

import "time"

type Todo struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Text      string     `json:"text"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
}
