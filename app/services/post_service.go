package services

import (
	"errors"
	"fmt"

	"yatube/app/models"
	"yatube/app/pagination"
	"yatube/app/repositories"
)

// PostPage is one page of posts together with its pagination state.
type PostPage struct {
	Posts []*models.Post
	Page  pagination.Page
}

// PostService handles business logic for posts
type PostService struct {
	store   *repositories.Store
	perPage int
}

// NewPostService creates a new PostService
func NewPostService(store *repositories.Store, perPage int) *PostService {
	if perPage < 1 {
		perPage = pagination.DefaultPerPage
	}
	return &PostService{store: store, perPage: perPage}
}

// Create validates post and stores it as written by author.
func (s *PostService) Create(author *models.User, post *models.Post) error {
	post.AuthorID = author.ID
	if err := s.validate(post); err != nil {
		return err
	}
	if err := s.store.Posts.Create(post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return s.hydrate([]*models.Post{post})
}

// Get returns a post with its author, group and comments attached.
func (s *PostService) Get(id int) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate([]*models.Post{post}); err != nil {
		return nil, err
	}

	comments, err := s.store.Comments.ListByPost(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	if err := hydrateComments(s.store, comments); err != nil {
		return nil, err
	}
	post.Comments = comments
	return post, nil
}

// Update saves text, group and image of a post owned by editor.
func (s *PostService) Update(editor *models.User, post *models.Post) error {
	existing, err := s.store.Posts.GetByID(post.ID)
	if err != nil {
		return err
	}
	if existing.AuthorID != editor.ID {
		return ErrForbidden
	}

	post.AuthorID = existing.AuthorID
	post.PubDate = existing.PubDate
	if err := s.validate(post); err != nil {
		return err
	}
	if err := s.store.Posts.Update(post); err != nil {
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	return s.hydrate([]*models.Post{post})
}

// Delete removes a post owned by editor together with its comments.
func (s *PostService) Delete(editor *models.User, id int) error {
	existing, err := s.store.Posts.GetByID(id)
	if err != nil {
		return err
	}
	if existing.AuthorID != editor.ID {
		return ErrForbidden
	}
	return s.store.Posts.Delete(id)
}

// Page returns the requested page of the posts selected by filter.
func (s *PostService) Page(filter repositories.PostFilter, rawPage string) (*PostPage, error) {
	total, err := s.store.Posts.Count(filter)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	page := pagination.Paginate(total, rawPage, s.perPage)
	posts := []*models.Post{}
	if page.Limit > 0 {
		posts, err = s.store.Posts.List(filter, page.Limit, page.Offset)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
	}
	if err := s.hydrate(posts); err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Page: page}, nil
}

// CountByAuthor returns how many posts authorID has written.
func (s *PostService) CountByAuthor(authorID int) (int, error) {
	return s.store.Posts.Count(repositories.PostFilter{AuthorID: authorID})
}

func (s *PostService) validate(post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}
	if post.GroupID == nil {
		return nil
	}
	if _, err := s.store.Groups.GetByID(*post.GroupID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ValidationErrors{"group": "Select a valid group"}
		}
		return err
	}
	return nil
}

// hydrate attaches Author and Group to each post, loading each once.
func (s *PostService) hydrate(posts []*models.Post) error {
	users := map[int]*models.User{}
	groups := map[int]*models.Group{}

	for _, post := range posts {
		author, ok := users[post.AuthorID]
		if !ok {
			var err error
			author, err = s.store.Users.GetByID(post.AuthorID)
			if err != nil {
				return fmt.Errorf("failed to get author of post %d: %w", post.ID, err)
			}
			users[post.AuthorID] = author
		}
		post.Author = author

		post.Group = nil
		if post.GroupID == nil {
			continue
		}
		group, ok := groups[*post.GroupID]
		if !ok {
			var err error
			group, err = s.store.Groups.GetByID(*post.GroupID)
			if err != nil {
				return fmt.Errorf("failed to get group of post %d: %w", post.ID, err)
			}
			groups[*post.GroupID] = group
		}
		post.Group = group
	}
	return nil
}
