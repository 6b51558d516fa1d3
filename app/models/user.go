package models

import "time"

// Validate checks the username, name and email rules.
func (u *User) Validate() error {
	return validateStruct(u)
}

// StampCreated stamps the join date.
func (u *User) StampCreated() {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
}

// FullName returns "First Last", or the username when both are empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
