package model

import (
	"time"
)

/*

Vote is a single user's endorsement of a post

UserID: voting user id
PostID: voted post id
CreatedAt: time when the vote is cast

At most one Vote row may exist per (UserID, PostID). The vote table is the
source of truth for vote counts; Post.TotalVotes is derived from it.
*/
type Vote struct {
	UserID    string `gorm:"primaryKey"`
	PostID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
