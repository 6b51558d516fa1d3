package repositories

import "yatube/app/models"

// PostFilter selects an ordered subsequence of posts. Zero fields do not filter.
type PostFilter struct {
	AuthorID int
	GroupID  int
	// FollowedBy restricts the sequence to authors followed by this user.
	FollowedBy int
}

// PostRepository defines the interface for post data access.
// Count and List see the same sequence, ordered newest first.
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	Count(filter PostFilter) (int, error)
	List(filter PostFilter, limit, offset int) ([]*models.Post, error)
	Update(post *models.Post) error
	Delete(id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id int) (*models.Comment, error)
	ListByPost(postID int) ([]*models.Comment, error)
	Update(comment *models.Comment) error
	Delete(id int) error
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	Create(group *models.Group) error
	GetByID(id int) (*models.Group, error)
	GetBySlug(slug string) (*models.Group, error)
	List() ([]*models.Group, error)
	Delete(id int) error
}

// UserRepository defines the interface for user data access.
// Deleting a user removes their posts, comments and follow edges.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id int) error
}

// FollowRepository stores the follow graph as a set of (user, author) edges.
// Add and Remove report whether the edge set changed.
type FollowRepository interface {
	Add(userID, authorID int) (bool, error)
	Remove(userID, authorID int) (bool, error)
	Exists(userID, authorID int) (bool, error)
	ListAuthors(userID int) ([]int, error)
}
