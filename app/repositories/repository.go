package repositories

import (
	"errors"
	"sort"

	"yatube/app/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Store bundles the repositories of one storage backend.
type Store struct {
	Users    UserRepository
	Groups   GroupRepository
	Posts    PostRepository
	Comments CommentRepository
	Follows  FollowRepository

	closer func() error
}

// NewStore assembles a Store; closer is invoked by Close and may be nil.
func NewStore(users UserRepository, groups GroupRepository, posts PostRepository,
	comments CommentRepository, follows FollowRepository, closer func() error) *Store {
	return &Store{
		Users:    users,
		Groups:   groups,
		Posts:    posts,
		Comments: comments,
		Follows:  follows,
		closer:   closer,
	}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// SortPosts orders posts newest first, breaking ties by descending id.
func SortPosts(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].PubDate.After(posts[j].PubDate)
	})
}

// Matches reports whether post belongs to the sequence selected by f.
// followed holds the author ids followed by f.FollowedBy.
func (f PostFilter) Matches(post *models.Post, followed map[int]bool) bool {
	if f.AuthorID != 0 && post.AuthorID != f.AuthorID {
		return false
	}
	if f.GroupID != 0 && (post.GroupID == nil || *post.GroupID != f.GroupID) {
		return false
	}
	if f.FollowedBy != 0 && !followed[post.AuthorID] {
		return false
	}
	return true
}
