package server

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/tagset"
)

// PostDTO is the wire shape of a post. Tags travel as a parsed list even
// though they are stored as one delimited string.
type PostDTO struct {
	Id          string    `json:"postId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContentUrl  string    `json:"contentUrl"`
	Tags        []string  `json:"tags"`
	CreatedBy   string    `json:"createdBy"`
	TotalVotes  uint      `json:"totalVotes"`
	IsSaved     bool      `json:"isSaved"`
	CreatedAt   time.Time `json:"createdDate"`
	UpdatedAt   time.Time `json:"updatedDate"`
}

func toPostDTO(post model.Post) PostDTO {
	dto := PostDTO{}
	copier.Copy(&dto, &post)
	dto.Type = post.Type.Info().Name
	dto.Tags = tagset.Parse(post.Tag)
	return dto
}

func toPostDTOs(posts []model.Post) []PostDTO {
	dtos := make([]PostDTO, 0, len(posts))
	for _, post := range posts {
		dtos = append(dtos, toPostDTO(post))
	}
	return dtos
}

// PostInput is the create/update request body.
type PostInput struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ContentUrl  string   `json:"contentUrl"`
	Tags        []string `json:"tags"`
}

// PreferenceDTO is the wire shape of a team digest preference.
type PreferenceDTO struct {
	TeamId          string    `json:"teamId"`
	Tags            []string  `json:"tags"`
	DigestFrequency string    `json:"digestFrequency"`
	UpdatedBy       string    `json:"updatedByObjectId"`
	UpdatedAt       time.Time `json:"updatedDate"`
}

func toPreferenceDTO(pref model.TeamPreference) PreferenceDTO {
	return PreferenceDTO{
		TeamId:          pref.TeamId,
		Tags:            tagset.Parse(pref.Tag),
		DigestFrequency: pref.DigestFrequency.String(),
		UpdatedBy:       pref.UpdatedBy,
		UpdatedAt:       pref.UpdatedAt,
	}
}

// PreferenceInput is the preference upsert request body.
type PreferenceInput struct {
	Tags            []string `json:"tags"`
	DigestFrequency string   `json:"digestFrequency"`
}
