package model

import (
	"time"

	"gorm.io/datatypes"
)

/*

DigestLog is an audit record of one delivered digest notification

Id: primary key
TeamId: team the digest was sent to
Frequency: Weekly or Monthly run that produced it
WindowStart, WindowEnd: the date window the digest covered
PostCount: number of posts included in the card
Card: the exact list card payload that was posted, kept for debugging
DeliveredAt: time when the delivery succeeded
*/
type DigestLog struct {
	Id          string `gorm:"primaryKey"`
	TeamId      string
	Frequency   DigestFrequency
	WindowStart time.Time
	WindowEnd   time.Time
	PostCount   int
	Card        datatypes.JSON
	DeliveredAt time.Time
}
