package services

import (
	"fmt"
	"strings"

	"yatube/app/models"
	"yatube/app/repositories"
)

// FollowService maintains the directed user to author subscription graph.
type FollowService struct {
	store *repositories.Store
	posts *PostService
}

func NewFollowService(store *repositories.Store, posts *PostService) *FollowService {
	return &FollowService{store: store, posts: posts}
}

// Follow subscribes user to author. It reports whether a new edge was created;
// following an already followed author is a no-op.
func (s *FollowService) Follow(user, author *models.User) (bool, error) {
	if user.ID == author.ID {
		return false, ErrSelfFollow
	}
	created, err := s.store.Follows.Add(user.ID, author.ID)
	if err != nil {
		return false, fmt.Errorf("follow %s: %w", author.Username, err)
	}
	return created, nil
}

// Unfollow removes the edge if present and reports whether it existed.
func (s *FollowService) Unfollow(user, author *models.User) (bool, error) {
	removed, err := s.store.Follows.Remove(user.ID, author.ID)
	if err != nil {
		return false, fmt.Errorf("unfollow %s: %w", author.Username, err)
	}
	return removed, nil
}

func (s *FollowService) IsFollowing(user, author *models.User) (bool, error) {
	if user == nil || author == nil {
		return false, nil
	}
	return s.store.Follows.Exists(user.ID, author.ID)
}

// Feed pages through the posts of every author user follows.
func (s *FollowService) Feed(user *models.User, rawPage string) (*PostPage, error) {
	return s.posts.Page(repositories.PostFilter{FollowedBy: user.ID}, rawPage)
}

// Following lists the authors user follows whose username contains search.
func (s *FollowService) Following(user *models.User, search string) ([]*models.User, error) {
	ids, err := s.store.Follows.ListAuthors(user.ID)
	if err != nil {
		return nil, err
	}

	authors := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		author, err := s.store.Users.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get followed author %d: %w", id, err)
		}
		if search != "" && !strings.Contains(strings.ToLower(author.Username), strings.ToLower(search)) {
			continue
		}
		authors = append(authors, author)
	}
	return authors, nil
}
