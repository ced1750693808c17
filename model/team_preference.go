package model

import (
	"strings"
	"time"
)

// DigestFrequency selects how often a team receives its digest.
type DigestFrequency int

const (
	DigestWeekly DigestFrequency = iota
	DigestMonthly
)

func (f DigestFrequency) String() string {
	if f == DigestMonthly {
		return "Monthly"
	}
	return "Weekly"
}

// ParseDigestFrequency maps a display name back to its enum value. The
// second return is false on an unknown name.
func ParseDigestFrequency(name string) (DigestFrequency, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "weekly":
		return DigestWeekly, true
	case "monthly":
		return DigestMonthly, true
	}
	return DigestWeekly, false
}

/*

TeamPreference is a team's digest configuration, one row per team

TeamId: primary key, the Teams team this preference belongs to
Tag: configured tags serialized as a semicolon separated string, in the
     order the configuring user picked them
DigestFrequency: Weekly or Monthly
UpdatedBy: id of the user who last changed the preference
UpdatedAt: time when the preference is last changed

The row is upserted on every save and deleted when the bot is removed
from the team.
*/
type TeamPreference struct {
	TeamId          string `gorm:"primaryKey"`
	Tag             string
	DigestFrequency DigestFrequency
	UpdatedBy       string
	UpdatedAt       time.Time
}
