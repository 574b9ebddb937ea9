package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/auth"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/storage"
)

const minPasswordLen = 8

// Session is the result of a successful register or login.
type Session struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// UpdateProfileInput carries a profile edit. Nil Name/Bio mean "unchanged";
// a non-nil Picture is streamed to object storage.
type UpdateProfileInput struct {
	UserID      string
	RequesterID string
	Name        *string
	Bio         *string
	Picture     io.Reader
	PictureName string
	PictureType string
	PictureSize int64
}

// UserService handles accounts, credentials, and profiles.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Get(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (*model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	store  storage.Storage
	tokens *auth.Manager
}

// NewUserService constructs a UserService.
func NewUserService(repo repository.UserRepository, store storage.Storage, tokens *auth.Manager) UserService {
	return &userService{repo: repo, store: store, tokens: tokens}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "must be a valid email address")
	}
	if len(password) < minPasswordLen {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: *u, Token: token}, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown email and wrong password are indistinguishable to the caller.
			return nil, ErrUnauthenticated
		}
		return nil, mapStoreErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthenticated
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: *u, Token: token}, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, invalid("id", "id is required")
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapStoreErr(err)
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*model.User, error) {
	if in.UserID != in.RequesterID {
		return nil, ErrForbidden
	}
	u, err := s.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		u.Name = name
	}
	if in.Bio != nil {
		u.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Picture != nil {
		key := filepath.ToSlash(filepath.Join("avatars", uuid.NewString()+filepath.Ext(in.PictureName)))
		objInfo, err := s.store.Put(ctx, key, in.Picture, storage.PutObjectOptions{
			Size:        in.PictureSize,
			ContentType: in.PictureType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload profile picture: %w", err)
		}
		u.ProfilePicture = objInfo.Key
	}

	updated, err := s.repo.UpdateProfile(ctx, u)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}
