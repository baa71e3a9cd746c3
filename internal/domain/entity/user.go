package entity

import "time"

type User struct {
	ID        string    `bson:"_id" json:"id"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
}
