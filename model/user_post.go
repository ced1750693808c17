package model

import (
	"time"
)

/*

UserPostSave is a user's private bookmark of a post

UserID: user id
PostID: post id
CreatedAt: time when the post is saved, used to order the private list

The private list API caps out at the 50 most recently saved posts per
user. Saved posts stay resolvable even after the post is soft deleted,
until the purge job hard deletes the row.
*/
type UserPostSave struct {
	UserID    string `gorm:"primaryKey"`
	PostID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
