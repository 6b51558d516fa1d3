package models

import "time"

// Validate rejects blank text and a missing post or author.
func (c *Comment) Validate() error {
	return validateStruct(c)
}

// StampCreated stamps Created unless it is already set.
func (c *Comment) StampCreated() {
	if c.Created.IsZero() {
		c.Created = time.Now().UTC()
	}
}

func (c *Comment) String() string {
	return excerpt(c.Text)
}
