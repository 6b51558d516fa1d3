package models

import "time"

// User is an account that can author posts, comment and follow other users.
type User struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null" validate:"required,max=150,username"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150)" validate:"max=150"`
	LastName     string    `json:"last_name" gorm:"type:varchar(150)" validate:"max=150"`
	Email        string    `json:"email" gorm:"type:varchar(254)" validate:"omitempty,max=254,email"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	Token        string    `json:"-" gorm:"type:varchar(40);index"`
	DateJoined   time.Time `json:"date_joined" gorm:"not null"`
}

// Group is a named category that posts may optionally belong to.
type Group struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"type:varchar(200);not null" validate:"required,max=200"`
	Slug        string `json:"slug" gorm:"type:varchar(30);uniqueIndex;not null" validate:"required,max=30,slug"`
	Description string `json:"description" gorm:"type:text"`
}

// Post is a user-authored text entry, optionally grouped and illustrated.
type Post struct {
	ID       int        `json:"id" gorm:"primaryKey"`
	Text     string     `json:"text" gorm:"type:text;not null" validate:"notblank"`
	PubDate  time.Time  `json:"pub_date" gorm:"not null;index"`
	AuthorID int        `json:"author_id" gorm:"not null;index" validate:"gt=0"`
	GroupID  *int       `json:"group_id" gorm:"index"`
	Image    string     `json:"image,omitempty" gorm:"type:varchar(255)" validate:"max=255"`
	Author   *User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" validate:"-"`
	Group    *Group     `json:"-" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" validate:"-"`
	Comments []*Comment `json:"-" gorm:"-" validate:"-"`
}

// Comment is a text reply attached to exactly one post and one author.
type Comment struct {
	ID       int       `json:"id" gorm:"primaryKey"`
	PostID   int       `json:"post_id" gorm:"not null;index" validate:"gt=0"`
	AuthorID int       `json:"author_id" gorm:"not null;index" validate:"gt=0"`
	Text     string    `json:"text" gorm:"type:text;not null" validate:"notblank"`
	Created  time.Time `json:"created" gorm:"not null"`
	Post     *Post     `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" validate:"-"`
	Author   *User     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" validate:"-"`
}

// Follow is a directed subscription edge from User to Author.
type Follow struct {
	ID       int   `json:"id" gorm:"primaryKey"`
	UserID   int   `json:"user_id" gorm:"not null;uniqueIndex:idx_follow_pair"`
	AuthorID int   `json:"author_id" gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	User     *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author   *User `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
