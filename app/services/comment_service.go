package services

import (
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	store *repositories.Store
}

// NewCommentService creates a new CommentService
func NewCommentService(store *repositories.Store) *CommentService {
	return &CommentService{store: store}
}

// Create attaches a comment by author to the post postID.
func (s *CommentService) Create(author *models.User, postID int, text string) (*models.Comment, error) {
	comment := &models.Comment{PostID: postID, AuthorID: author.ID, Text: text}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Posts.GetByID(postID); err != nil {
		return nil, err
	}
	if err := s.store.Comments.Create(comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = author
	return comment, nil
}

// List returns the comments of postID, oldest first.
func (s *CommentService) List(postID int) ([]*models.Comment, error) {
	if _, err := s.store.Posts.GetByID(postID); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.ListByPost(postID)
	if err != nil {
		return nil, err
	}
	if err := hydrateComments(s.store, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Get returns comment id, which must belong to postID.
func (s *CommentService) Get(postID, id int) (*models.Comment, error) {
	comment, err := s.store.Comments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, repositories.ErrNotFound
	}
	if err := hydrateComments(s.store, []*models.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// Update changes the text of a comment owned by editor.
func (s *CommentService) Update(editor *models.User, postID, id int, text string) (*models.Comment, error) {
	comment, err := s.Get(postID, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != editor.ID {
		return nil, ErrForbidden
	}

	comment.Text = text
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Comments.Update(comment); err != nil {
		return nil, fmt.Errorf("update comment %d: %w", id, err)
	}
	return comment, nil
}

// Delete removes a comment owned by editor.
func (s *CommentService) Delete(editor *models.User, postID, id int) error {
	comment, err := s.Get(postID, id)
	if err != nil {
		return err
	}
	if comment.AuthorID != editor.ID {
		return ErrForbidden
	}
	return s.store.Comments.Delete(id)
}

func hydrateComments(store *repositories.Store, comments []*models.Comment) error {
	users := map[int]*models.User{}
	for _, comment := range comments {
		author, ok := users[comment.AuthorID]
		if !ok {
			var err error
			author, err = store.Users.GetByID(comment.AuthorID)
			if err != nil {
				return fmt.Errorf("failed to get author of comment %d: %w", comment.ID, err)
			}
			users[comment.AuthorID] = author
		}
		comment.Author = author
	}
	return nil
}
