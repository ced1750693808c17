package digest

import (
	"fmt"

	"github.com/curately/goodreads/model"
)

// List card payload shapes posted to the team's messaging endpoint.
// Field names follow the Teams list card schema and must not change.
type ListCard struct {
	ContentType string          `json:"contentType"`
	Content     ListCardContent `json:"content"`
}

type ListCardContent struct {
	Title string         `json:"title"`
	Items []ListCardItem `json:"items"`
}

type ListCardItem struct {
	Id       string      `json:"id"`
	Type     string      `json:"type"`
	Title    string      `json:"title"`
	Subtitle string      `json:"subtitle"`
	Icon     string      `json:"icon"`
	Tap      ListCardTap `json:"tap"`
}

type ListCardTap struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

const listCardContentType = "application/vnd.microsoft.teams.card.list"

// BuildCard renders the digest list card for one team's selected posts.
func BuildCard(frequency model.DigestFrequency, posts []model.Post) ListCard {
	items := []ListCardItem{}
	for _, post := range posts {
		info := post.Type.Info()
		items = append(items, ListCardItem{
			Id:       post.Id,
			Type:     "resultItem",
			Title:    post.Title,
			Subtitle: fmt.Sprintf("%s | %d votes", info.Name, post.TotalVotes),
			Icon:     info.IconUrl,
			Tap: ListCardTap{
				Type:  "openUrl",
				Value: post.ContentUrl,
			},
		})
	}
	return ListCard{
		ContentType: listCardContentType,
		Content: ListCardContent{
			Title: fmt.Sprintf("Your %s digest of top shared reads", frequency),
			Items: items,
		},
	}
}
