package model

import (
	"time"
)

/*

Post is a piece of curated content shared by a team member

Id: primary key, use to identify a post
CreatedAt: time when the post is created
UpdatedAt: time when the post is last edited, used for digest recency

Type: content type, one of the PostType enum values
Title: post's title in plain text
Description: short free text description entered by the author
ContentUrl: link to the underlying article/video/podcast/book
Tag: free-form labels serialized as a single semicolon separated string,
     for example "Tech;Books;golang". Parsing and normalization lives in
     the tagset package.

CreatedBy: id of the user who shared this post
TotalVotes: denormalized vote counter. This is a derived cache of the vote
            table and must only ever be mutated through the vote ledger's
            conditional update path.
IsRemoved: soft delete marker. Removed posts are hidden from every filter
           and search read but stay resolvable for saved-post lists until
           the periodic purge hard deletes them.
Version: monotonically increasing row version used as the optimistic
         concurrency precondition for counter updates.
*/
type Post struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Type        PostType
	Title       string
	Description string
	ContentUrl  string
	Tag         string
	CreatedBy   string
	TotalVotes  uint
	IsRemoved   bool
	Version     int64
}

// PostType enumerates the supported content types.
type PostType int

const (
	PostTypeBlog PostType = iota
	PostTypeOther
	PostTypePodcast
	PostTypeVideo
	PostTypeBook
)

// PostTypeInfo carries the client facing representation of a PostType.
type PostTypeInfo struct {
	Name    string
	IconUrl string
}

// postTypeInfos is an exhaustive mapping, indexed by PostType. Keep it in
// sync with the enum above; Info falls back to UnknownPostTypeInfo for
// anything out of range so an unmapped id can never surface as nil.
var postTypeInfos = [...]PostTypeInfo{
	PostTypeBlog:    {Name: "Blog", IconUrl: "/icons/blogIcon.png"},
	PostTypeOther:   {Name: "Other", IconUrl: "/icons/otherIcon.png"},
	PostTypePodcast: {Name: "Podcast", IconUrl: "/icons/podcastIcon.png"},
	PostTypeVideo:   {Name: "Video", IconUrl: "/icons/videoIcon.png"},
	PostTypeBook:    {Name: "Book", IconUrl: "/icons/bookIcon.png"},
}

var UnknownPostTypeInfo = PostTypeInfo{Name: "Unknown", IconUrl: "/icons/otherIcon.png"}

// Info resolves the display name and icon for a post type.
func (t PostType) Info() PostTypeInfo {
	if t < 0 || int(t) >= len(postTypeInfos) {
		return UnknownPostTypeInfo
	}
	return postTypeInfos[t]
}

// ParsePostType maps a display name back to its enum value. The second
// return value is false for unrecognized names.
func ParsePostType(name string) (PostType, bool) {
	for t, info := range postTypeInfos {
		if info.Name == name {
			return PostType(t), true
		}
	}
	return PostTypeOther, false
}
