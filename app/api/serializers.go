package api

import (
	"time"

	"yatube/app/models"
)

type postJSON struct {
	ID      int       `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
	Image   *string   `json:"image"`
	Group   *int      `json:"group"`
}

func toPostJSON(p *models.Post) postJSON {
	out := postJSON{
		ID:      p.ID,
		Text:    p.Text,
		PubDate: p.PubDate,
		Group:   p.GroupID,
	}
	if p.Author != nil {
		out.Author = p.Author.Username
	}
	if p.Image != "" {
		image := p.Image
		out.Image = &image
	}
	return out
}

func toPostsJSON(posts []*models.Post) []postJSON {
	out := make([]postJSON, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostJSON(p))
	}
	return out
}

type commentJSON struct {
	ID      int       `json:"id"`
	Author  string    `json:"author"`
	Post    int       `json:"post"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

func toCommentJSON(c *models.Comment) commentJSON {
	out := commentJSON{
		ID:      c.ID,
		Post:    c.PostID,
		Text:    c.Text,
		Created: c.Created,
	}
	if c.Author != nil {
		out.Author = c.Author.Username
	}
	return out
}

func toCommentsJSON(comments []*models.Comment) []commentJSON {
	out := make([]commentJSON, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentJSON(c))
	}
	return out
}

type followJSON struct {
	User      string `json:"user"`
	Following string `json:"following"`
}
