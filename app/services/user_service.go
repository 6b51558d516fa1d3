package services

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"yatube/app/auth"
	"yatube/app/models"
	"yatube/app/repositories"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// UserService registers and authenticates users.
type UserService struct {
	store *repositories.Store
}

func NewUserService(store *repositories.Store) *UserService {
	return &UserService{store: store}
}

// Register validates user, hashes password and stores the account.
func (s *UserService) Register(user *models.User, password string) error {
	errs := models.ValidationErrors{}
	if err := user.Validate(); err != nil {
		var verrs models.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for field, msg := range verrs {
			errs[field] = msg
		}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(errs) > 0 {
		return errs
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.store.Users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.ValidationErrors{"username": "A user with that username already exists"}
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Authenticate returns the user whose username and password match.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.store.Users.GetByUsername(username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Get(id int) (*models.User, error) {
	return s.store.Users.GetByID(id)
}

func (s *UserService) GetByUsername(username string) (*models.User, error) {
	return s.store.Users.GetByUsername(username)
}

func (s *UserService) GetByToken(token string) (*models.User, error) {
	return s.store.Users.GetByToken(token)
}

// APIToken returns the user's API token, creating it on first use.
func (s *UserService) APIToken(user *models.User) (string, error) {
	if user.Token != "" {
		return user.Token, nil
	}
	token, err := auth.NewAPIToken()
	if err != nil {
		return "", err
	}
	user.Token = token
	if err := s.store.Users.Update(user); err != nil {
		user.Token = ""
		return "", fmt.Errorf("save token: %w", err)
	}
	return token, nil
}

// Delete removes the account and everything it authored or followed.
func (s *UserService) Delete(username string) error {
	user, err := s.store.Users.GetByUsername(username)
	if err != nil {
		return err
	}
	return s.store.Users.Delete(user.ID)
}
