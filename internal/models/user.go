package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TokenHash string    `json:"-"`
	Timezone  string    `json:"timezone,omitempty"` // IANA name, empty means server default
	CreatedAt time.Time `json:"createdAt"`
}
