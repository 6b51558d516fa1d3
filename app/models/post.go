package models

import "time"

const excerptLen = 15

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	return validateStruct(p)
}

// StampCreated sets PubDate to now unless it is already set, and stores it
// in UTC so every backend orders the same instants the same way.
func (p *Post) StampCreated() {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
	p.PubDate = p.PubDate.UTC()
}

// SetGroup attaches the post to group, or detaches it when group is nil.
func (p *Post) SetGroup(group *Group) {
	p.Group = group
	if group == nil {
		p.GroupID = nil
		return
	}
	id := group.ID
	p.GroupID = &id
}

// String returns the first characters of the post text.
func (p *Post) String() string {
	return excerpt(p.Text)
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) > excerptLen {
		return string(runes[:excerptLen])
	}
	return text
}
