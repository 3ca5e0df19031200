// Package mocks provides testify mocks for the model collaborator
// interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/filmdb/auth-service/internal/model"
)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email model.Email) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) ExistsByEmail(ctx context.Context, email model.Email) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserStore) ExistsByUsername(ctx context.Context, username model.Username) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) CreateExternal(ctx context.Context, user model.User, login model.UserLogin) (model.User, error) {
	args := m.Called(ctx, user, login)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Update(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type UserLoginStore struct {
	mock.Mock
}

func (m *UserLoginStore) GetByProvider(ctx context.Context, key model.ProviderKey, name model.ProviderName) (model.UserLogin, error) {
	args := m.Called(ctx, key, name)
	return args.Get(0).(model.UserLogin), args.Error(1)
}

func (m *UserLoginStore) Create(ctx context.Context, login model.UserLogin) error {
	args := m.Called(ctx, login)
	return args.Error(0)
}

func (m *UserLoginStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type PendingRegistrationStore struct {
	mock.Mock
}

func (m *PendingRegistrationStore) Create(ctx context.Context, pending model.PendingRegistration) error {
	args := m.Called(ctx, pending)
	return args.Error(0)
}

func (m *PendingRegistrationStore) GetByCode(ctx context.Context, code string) (model.PendingRegistration, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.PendingRegistration), args.Error(1)
}

func (m *PendingRegistrationStore) ExistsByEmail(ctx context.Context, email model.Email) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *PendingRegistrationStore) ExistsByUsername(ctx context.Context, username model.Username) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *PendingRegistrationStore) ConsumeAndCreate(ctx context.Context, code string, user model.User) (model.User, error) {
	args := m.Called(ctx, code, user)
	return args.Get(0).(model.User), args.Error(1)
}

type RefreshTokenStore struct {
	mock.Mock
}

func (m *RefreshTokenStore) Create(ctx context.Context, token model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenStore) GetByHash(ctx context.Context, hash []byte) (model.RefreshToken, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, oldID uuid.UUID, replacement model.RefreshToken) error {
	args := m.Called(ctx, oldID, replacement)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeByHash(ctx context.Context, hash []byte) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *RefreshTokenStore) DeleteAllByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type PasswordHasher struct {
	mock.Mock
}

func (m *PasswordHasher) Hash(password model.PlainPassword) (model.HashedPassword, error) {
	args := m.Called(password)
	return args.Get(0).(model.HashedPassword), args.Error(1)
}

func (m *PasswordHasher) Verify(password model.PlainPassword, hash model.HashedPassword) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

type AccessTokenProvider struct {
	mock.Mock
}

func (m *AccessTokenProvider) GenerateAccessToken(userID uuid.UUID) (string, int64, error) {
	args := m.Called(userID)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *AccessTokenProvider) ParseAccessToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type CodeGenerator struct {
	mock.Mock
}

func (m *CodeGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type OAuthExchanger struct {
	mock.Mock
}

func (m *OAuthExchanger) Exchange(ctx context.Context, code string) (model.ProviderUserInfo, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.ProviderUserInfo), args.Error(1)
}

type EventSink struct {
	mock.Mock
}

func (m *EventSink) Publish(ctx context.Context, event model.UserRegistered) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
