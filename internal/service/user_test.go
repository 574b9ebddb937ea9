package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/auth"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
	repoMocks "github.com/devTanmayBang2104/scholar-share-platform/internal/repository/mocks"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/storage"
	storeMocks "github.com/devTanmayBang2104/scholar-share-platform/internal/storage/mocks"
)

func newTokens(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager("test-secret", time.Minute)
	require.NoError(t, err)
	return m
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		userName   string
		email      string
		password   string
		setupMocks func(mRepo *repoMocks.MockUserRepository)
		wantField  string
		wantErr    error
	}{
		{
			name:     "happy path",
			userName: "Priya",
			email:    "Priya@Example.com",
			password: "correct-horse",
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
					// Email is normalized and the password is stored hashed.
					return u.Email == "priya@example.com" &&
						u.PasswordHash != "" &&
						u.PasswordHash != "correct-horse"
				})).Return(&model.User{ID: "u1", Name: "Priya", Email: "priya@example.com"}, nil)
			},
		},
		{
			name:      "blank name",
			userName:  "  ",
			email:     "a@b.com",
			password:  "long-enough",
			wantField: "name",
		},
		{
			name:      "bad email",
			userName:  "Priya",
			email:     "not-an-email",
			password:  "long-enough",
			wantField: "email",
		},
		{
			name:      "short password",
			userName:  "Priya",
			email:     "a@b.com",
			password:  "short",
			wantField: "password",
		},
		{
			name:     "duplicate email",
			userName: "Priya",
			email:    "taken@example.com",
			password: "long-enough",
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicateEmail)
			},
			wantErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockUserRepository)
			svc := NewUserService(mRepo, nil, newTokens(t))

			if tt.setupMocks != nil {
				tt.setupMocks(mRepo)
			}

			sess, err := svc.Register(ctx, tt.userName, tt.email, tt.password)

			switch {
			case tt.wantField != "":
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantField, vErr.Field)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, sess.Token)
				assert.Equal(t, "u1", sess.User.ID)
			}

			mRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &model.User{ID: "u1", Email: "priya@example.com", PasswordHash: string(hash)}

	t.Run("valid credentials issue a token", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		tokens := newTokens(t)
		svc := NewUserService(mRepo, nil, tokens)

		mRepo.On("FindByEmail", ctx, "priya@example.com").Return(stored, nil)

		sess, err := svc.Login(ctx, " Priya@Example.com ", "correct-horse")

		require.NoError(t, err)
		userID, err := tokens.Verify(sess.Token)
		require.NoError(t, err)
		assert.Equal(t, "u1", userID)
	})

	t.Run("wrong password", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo, nil, newTokens(t))

		mRepo.On("FindByEmail", ctx, "priya@example.com").Return(stored, nil)

		_, err := svc.Login(ctx, "priya@example.com", "wrong")

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown email looks like wrong password", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo, nil, newTokens(t))

		mRepo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrNotFound)

		_, err := svc.Login(ctx, "ghost@example.com", "whatever")

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("only the owner may edit", func(t *testing.T) {
		svc := NewUserService(nil, nil, newTokens(t))

		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: "u1", RequesterID: "u2"})

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("name and bio update", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo, nil, newTokens(t))

		mRepo.On("FindByID", ctx, "u1").Return(&model.User{ID: "u1", Name: "Priya"}, nil)
		mRepo.On("UpdateProfile", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.Name == "Priya S" && u.Bio == "3rd year CS"
		})).Return(&model.User{ID: "u1", Name: "Priya S", Bio: "3rd year CS"}, nil)

		name := "Priya S"
		bio := " 3rd year CS "
		got, err := svc.UpdateProfile(ctx, UpdateProfileInput{
			UserID: "u1", RequesterID: "u1", Name: &name, Bio: &bio,
		})

		require.NoError(t, err)
		assert.Equal(t, "Priya S", got.Name)
		mRepo.AssertExpectations(t)
	})

	t.Run("picture is streamed to storage", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		mStore := new(storeMocks.MockStorage)
		svc := NewUserService(mRepo, mStore, newTokens(t))

		mRepo.On("FindByID", ctx, "u1").Return(&model.User{ID: "u1", Name: "Priya"}, nil)
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "avatars/") && strings.HasSuffix(key, ".png")
		}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "avatars/p.png"}, nil)
		mRepo.On("UpdateProfile", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.ProfilePicture == "avatars/p.png"
		})).Return(&model.User{ID: "u1", ProfilePicture: "avatars/p.png"}, nil)

		got, err := svc.UpdateProfile(ctx, UpdateProfileInput{
			UserID:      "u1",
			RequesterID: "u1",
			Picture:     strings.NewReader("png bytes"),
			PictureName: "me.png",
			PictureType: "image/png",
			PictureSize: 9,
		})

		require.NoError(t, err)
		assert.Equal(t, "avatars/p.png", got.ProfilePicture)
	})
}
