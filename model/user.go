package model

import "time"

type User struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string
}
