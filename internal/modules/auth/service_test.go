package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medislot/internal/domain"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if u != nil {
		u.ID = 42 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type stubJWT struct{}

func (stubJWT) GenerateToken(userID int64, role string) (string, error) {
	return "token", nil
}

func TestSignup_Success(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "new@test.dev").Return(nil, gorm.ErrRecordNotFound)
	users.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := NewService(users, stubJWT{})
	u, err := service.Signup(context.Background(), SignupRequest{
		Name:     "New User",
		Email:    "New@Test.dev",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@test.dev", u.Email, "email is normalized")
	assert.Equal(t, domain.RolePatient, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "taken@test.dev").
		Return(&domain.User{ID: 1, Email: "taken@test.dev"}, nil)

	service := NewService(users, stubJWT{})
	_, err := service.Signup(context.Background(), SignupRequest{
		Name:     "X",
		Email:    "taken@test.dev",
		Password: "secret123",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "a@test.dev").Return(&domain.User{
		ID:           7,
		Email:        "a@test.dev",
		PasswordHash: string(hash),
		Role:         domain.RolePatient,
	}, nil)

	service := NewService(users, stubJWT{})
	res, err := service.Login(context.Background(), LoginRequest{
		Email:    "a@test.dev",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "token", res.Token)
	assert.EqualValues(t, 7, res.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "a@test.dev").Return(&domain.User{
		ID:           7,
		Email:        "a@test.dev",
		PasswordHash: string(hash),
	}, nil)

	service := NewService(users, stubJWT{})
	_, err = service.Login(context.Background(), LoginRequest{
		Email:    "a@test.dev",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetByEmail", mock.Anything, "ghost@test.dev").Return(nil, gorm.ErrRecordNotFound)

	service := NewService(users, stubJWT{})
	_, err := service.Login(context.Background(), LoginRequest{
		Email:    "ghost@test.dev",
		Password: "whatever",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
