package model

import (
	"time"
)

/*

TeamChannel is a data model for the channel the bot posts digests to

TeamId: primary key, the Teams team id captured when the bot is installed
CreatedAt: time when entity is created
UpdatedAt: time when the registration is refreshed
Name: the team's display name
ConversationId: the general channel conversation the digest card is sent to
ServiceUrl: per-team messaging endpoint the delivery layer posts cards to

The row is upserted on every install event and deleted when the bot is
removed from the team.
*/
type TeamChannel struct {
	TeamId         string    `gorm:"primaryKey"`
	CreatedAt      time.Time `gorm:"<-:create"`
	UpdatedAt      time.Time
	Name           string
	ConversationId string
	ServiceUrl     string
}
