package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/filmdb/auth-service/internal/mocks"
	"github.com/filmdb/auth-service/internal/model"
	"github.com/filmdb/auth-service/internal/testutil"
)

type authFixture struct {
	auth    *Auth
	users   *mocks.UserStore
	logins  *mocks.UserLoginStore
	pending *mocks.PendingRegistrationStore
	hasher  *mocks.PasswordHasher
	codes   *mocks.CodeGenerator
	oauth   *mocks.OAuthExchanger
	events  *mocks.EventSink
	tokens  *mocks.RefreshTokenStore
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:   &mocks.UserStore{},
		logins:  &mocks.UserLoginStore{},
		pending: &mocks.PendingRegistrationStore{},
		hasher:  &mocks.PasswordHasher{},
		codes:   &mocks.CodeGenerator{},
		oauth:   &mocks.OAuthExchanger{},
		events:  &mocks.EventSink{},
		tokens:  &mocks.RefreshTokenStore{},
	}

	log := testutil.MakeNoopLogger()
	provider := &mocks.AccessTokenProvider{}
	provider.On("GenerateAccessToken", mock.Anything).Return("access-token", int64(900), nil)
	f.tokens.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	tokenService := NewTokenService(provider, f.tokens, f.codes, log)
	f.auth = NewAuth(f.users, f.logins, f.pending, f.hasher, f.codes, f.oauth, f.events, tokenService, log)
	return f
}

func localUser(t *testing.T) model.User {
	t.Helper()
	return model.NewLocalUser("alice", "alice@example.com", "stored-hash")
}

func externalUser(t *testing.T) model.User {
	t.Helper()
	return model.NewExternalUser("bob@gmail.com", "12345", model.ProviderGoogle)
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success stages pending registration", func(t *testing.T) {
		f := newAuthFixture()

		f.users.On("ExistsByEmail", mock.Anything, model.Email("alice@example.com")).Return(false, nil)
		f.pending.On("ExistsByEmail", mock.Anything, model.Email("alice@example.com")).Return(false, nil)
		f.users.On("ExistsByUsername", mock.Anything, model.Username("alice")).Return(false, nil)
		f.pending.On("ExistsByUsername", mock.Anything, model.Username("alice")).Return(false, nil)
		f.hasher.On("Hash", model.PlainPassword("password1")).Return(model.HashedPassword("hashed"), nil)
		f.codes.On("Generate").Return("verify-code", nil)
		f.pending.On("Create", mock.Anything, mock.MatchedBy(func(p model.PendingRegistration) bool {
			return p.Code == "verify-code" &&
				p.Username == "alice" &&
				p.Email == "alice@example.com" &&
				p.PasswordHash == "hashed" &&
				p.ExpiresAt.After(time.Now())
		})).Return(nil)

		ack, err := f.auth.Register(ctx, "alice", "Alice@Example.com", "password1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", ack.Email)
		assert.Equal(t, "verify-code", ack.VerificationCode)

		f.pending.AssertExpectations(t)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("invalid username", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.auth.Register(ctx, "a!", "alice@example.com", "password1")
		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.auth.Register(ctx, "alice", "not-an-email", "password1")
		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("weak password", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.auth.Register(ctx, "alice", "alice@example.com", "short")
		var validationErr *model.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("email already registered", func(t *testing.T) {
		f := newAuthFixture()

		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(true, nil)

		_, err := f.auth.Register(ctx, "alice", "alice@example.com", "password1")
		assert.ErrorIs(t, err, model.ErrEmailExists)
	})

	t.Run("email already staged", func(t *testing.T) {
		f := newAuthFixture()

		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.pending.On("ExistsByEmail", mock.Anything, mock.Anything).Return(true, nil)

		_, err := f.auth.Register(ctx, "alice", "alice@example.com", "password1")
		assert.ErrorIs(t, err, model.ErrEmailExists)
	})

	t.Run("username taken", func(t *testing.T) {
		f := newAuthFixture()

		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.pending.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.users.On("ExistsByUsername", mock.Anything, mock.Anything).Return(true, nil)

		_, err := f.auth.Register(ctx, "alice", "alice@example.com", "password1")
		assert.ErrorIs(t, err, model.ErrUsernameExists)
	})
}

func TestAuth_VerifyRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("success creates user and publishes event", func(t *testing.T) {
		f := newAuthFixture()

		pending := model.PendingRegistration{
			Code:         "verify-code",
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "hashed",
			ExpiresAt:    time.Now().Add(time.Hour),
		}
		saved := localUser(t)

		f.pending.On("GetByCode", mock.Anything, "verify-code").Return(pending, nil)
		f.pending.On("ConsumeAndCreate", mock.Anything, "verify-code", mock.MatchedBy(func(u model.User) bool {
			return u.Username == pending.Username && u.Email == pending.Email && u.PasswordHash == pending.PasswordHash
		})).Return(saved, nil)
		f.events.On("Publish", mock.Anything, mock.MatchedBy(func(ev model.UserRegistered) bool {
			return ev.UserID == saved.ID && ev.Email == saved.Email
		})).Return(nil)

		view, err := f.auth.VerifyRegistration(ctx, "verify-code")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, view.ID)
		assert.Equal(t, "alice", view.Username)

		f.events.AssertExpectations(t)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newAuthFixture()

		f.pending.On("GetByCode", mock.Anything, mock.Anything).Return(model.PendingRegistration{}, model.ErrNotFound)

		_, err := f.auth.VerifyRegistration(ctx, "nope")
		assert.ErrorIs(t, err, model.ErrCodeInvalid)
	})

	t.Run("expired code", func(t *testing.T) {
		f := newAuthFixture()

		expired := model.PendingRegistration{
			Code:      "verify-code",
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		f.pending.On("GetByCode", mock.Anything, "verify-code").Return(expired, nil)

		_, err := f.auth.VerifyRegistration(ctx, "verify-code")
		assert.ErrorIs(t, err, model.ErrCodeInvalid)
		f.pending.AssertNotCalled(t, "ConsumeAndCreate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replayed code", func(t *testing.T) {
		f := newAuthFixture()

		pending := model.PendingRegistration{
			Code:      "verify-code",
			Username:  "alice",
			Email:     "alice@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		}
		f.pending.On("GetByCode", mock.Anything, "verify-code").Return(pending, nil)
		f.pending.On("ConsumeAndCreate", mock.Anything, "verify-code", mock.Anything).
			Return(model.User{}, model.ErrCodeInvalid)

		_, err := f.auth.VerifyRegistration(ctx, "verify-code")
		assert.ErrorIs(t, err, model.ErrCodeInvalid)
	})

	t.Run("event publish failure does not fail verification", func(t *testing.T) {
		f := newAuthFixture()

		pending := model.PendingRegistration{
			Code:      "verify-code",
			Username:  "alice",
			Email:     "alice@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		}
		f.pending.On("GetByCode", mock.Anything, "verify-code").Return(pending, nil)
		f.pending.On("ConsumeAndCreate", mock.Anything, "verify-code", mock.Anything).Return(localUser(t), nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("queue full"))

		_, err := f.auth.VerifyRegistration(ctx, "verify-code")
		assert.NoError(t, err)
	})
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	client := model.ClientContext{IP: "203.0.113.7", UserAgent: "test-agent"}

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByEmail", mock.Anything, model.Email("alice@example.com")).Return(user, nil)
		f.hasher.On("Verify", model.PlainPassword("password1"), user.PasswordHash).Return(true, nil)
		f.codes.On("Generate").Return("refresh-value", nil)

		result, err := f.auth.Login(ctx, "alice@example.com", "password1", client)
		require.NoError(t, err)
		assert.Equal(t, "access-token", result.AccessToken)
		assert.Equal(t, "refresh-value", result.RefreshToken)
		assert.Equal(t, "alice", result.Username)
	})

	t.Run("unknown email still verifies a hash", func(t *testing.T) {
		f := newAuthFixture()

		f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{}, model.ErrNotFound)
		f.hasher.On("Verify", model.PlainPassword("password1"), mock.Anything).Return(false, nil)

		_, err := f.auth.Login(ctx, "ghost@example.com", "password1", client)
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)

		f.hasher.AssertCalled(t, "Verify", model.PlainPassword("password1"), mock.Anything)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(user, nil)
		f.hasher.On("Verify", mock.Anything, mock.Anything).Return(false, nil)

		_, err := f.auth.Login(ctx, "alice@example.com", "wrongpass1", client)
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("external account cannot password login", func(t *testing.T) {
		f := newAuthFixture()
		user := externalUser(t)

		f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(user, nil)
		f.hasher.On("Verify", mock.Anything, mock.Anything).Return(false, nil)

		_, err := f.auth.Login(ctx, "bob@gmail.com", "password1", client)
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("malformed email", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.auth.Login(ctx, "not-an-email", "password1", client)
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})
}

func TestAuth_OAuthLoginOrRegister(t *testing.T) {
	ctx := context.Background()
	client := model.ClientContext{IP: "203.0.113.7", UserAgent: "test-agent"}
	info := model.ProviderUserInfo{
		Key:   "12345",
		Name:  model.ProviderGoogle,
		Email: "bob@gmail.com",
	}

	t.Run("existing link logs in", func(t *testing.T) {
		f := newAuthFixture()
		user := externalUser(t)
		login := model.UserLogin{UserID: user.ID, ProviderKey: "12345", ProviderName: model.ProviderGoogle}

		f.oauth.On("Exchange", mock.Anything, "auth-code").Return(info, nil)
		f.logins.On("GetByProvider", mock.Anything, model.ProviderKey("12345"), model.ProviderGoogle).Return(login, nil)
		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.codes.On("Generate").Return("refresh-value", nil)

		result, err := f.auth.OAuthLoginOrRegister(ctx, "auth-code", client)
		require.NoError(t, err)
		assert.Equal(t, "google12345", result.Username)
		f.users.AssertNotCalled(t, "CreateExternal", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new identity registers", func(t *testing.T) {
		f := newAuthFixture()
		saved := externalUser(t)

		f.oauth.On("Exchange", mock.Anything, "auth-code").Return(info, nil)
		f.logins.On("GetByProvider", mock.Anything, mock.Anything, mock.Anything).Return(model.UserLogin{}, model.ErrNotFound)
		f.users.On("ExistsByEmail", mock.Anything, model.Email("bob@gmail.com")).Return(false, nil)
		f.users.On("CreateExternal", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.IsExternal() && u.Email == "bob@gmail.com"
		}), mock.MatchedBy(func(l model.UserLogin) bool {
			return l.ProviderKey == "12345" && l.ProviderName == model.ProviderGoogle
		})).Return(saved, nil)
		f.codes.On("Generate").Return("refresh-value", nil)

		result, err := f.auth.OAuthLoginOrRegister(ctx, "auth-code", client)
		require.NoError(t, err)
		assert.Equal(t, "google12345", result.Username)

		f.users.AssertExpectations(t)
	})

	t.Run("email owned by another account", func(t *testing.T) {
		f := newAuthFixture()

		f.oauth.On("Exchange", mock.Anything, "auth-code").Return(info, nil)
		f.logins.On("GetByProvider", mock.Anything, mock.Anything, mock.Anything).Return(model.UserLogin{}, model.ErrNotFound)
		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(true, nil)

		_, err := f.auth.OAuthLoginOrRegister(ctx, "auth-code", client)
		assert.ErrorIs(t, err, model.ErrEmailExists)
	})

	t.Run("provider unavailable", func(t *testing.T) {
		f := newAuthFixture()

		f.oauth.On("Exchange", mock.Anything, mock.Anything).
			Return(model.ProviderUserInfo{}, model.ErrUpstreamUnavailable)

		_, err := f.auth.OAuthLoginOrRegister(ctx, "auth-code", client)
		assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	})
}

func TestAuth_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", model.PlainPassword("password1"), user.PasswordHash).Return(true, nil)
		f.hasher.On("Hash", model.PlainPassword("newpass22")).Return(model.HashedPassword("new-hash"), nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.PasswordHash == "new-hash"
		})).Return(nil)

		err := f.auth.ChangePassword(ctx, user.ID, "password1", "newpass22")
		require.NoError(t, err)
		f.users.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture()
		id := uuid.New()

		f.users.On("GetByID", mock.Anything, id).Return(model.User{}, model.ErrNotFound)

		err := f.auth.ChangePassword(ctx, id, "password1", "newpass22")
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", mock.Anything, mock.Anything).Return(false, nil)

		err := f.auth.ChangePassword(ctx, user.ID, "wrongpw11", "newpass22")
		assert.ErrorIs(t, err, model.ErrPasswordMismatch)
	})

	t.Run("external account", func(t *testing.T) {
		f := newAuthFixture()
		user := externalUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		err := f.auth.ChangePassword(ctx, user.ID, "password1", "newpass22")
		assert.ErrorIs(t, err, model.ErrUserExternal)
	})
}

func TestAuth_ChangeUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", model.PlainPassword("password1"), user.PasswordHash).Return(true, nil)
		f.users.On("ExistsByUsername", mock.Anything, model.Username("newalice")).Return(false, nil)
		f.pending.On("ExistsByUsername", mock.Anything, model.Username("newalice")).Return(false, nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.Username == "newalice"
		})).Return(nil)

		err := f.auth.ChangeUsername(ctx, user.ID, "password1", "newalice")
		require.NoError(t, err)
	})

	t.Run("taken username", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", mock.Anything, mock.Anything).Return(true, nil)
		f.users.On("ExistsByUsername", mock.Anything, mock.Anything).Return(true, nil)

		err := f.auth.ChangeUsername(ctx, user.ID, "password1", "taken")
		assert.ErrorIs(t, err, model.ErrUsernameExists)
	})

	t.Run("external account rejected", func(t *testing.T) {
		f := newAuthFixture()
		user := externalUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		err := f.auth.ChangeUsername(ctx, user.ID, "password1", "newname")
		assert.ErrorIs(t, err, model.ErrUserExternal)
	})
}

func TestAuth_ChangeEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", model.PlainPassword("password1"), user.PasswordHash).Return(true, nil)
		f.users.On("ExistsByEmail", mock.Anything, model.Email("new@example.com")).Return(false, nil)
		f.pending.On("ExistsByEmail", mock.Anything, model.Email("new@example.com")).Return(false, nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.Email == "new@example.com"
		})).Return(nil)

		err := f.auth.ChangeEmail(ctx, user.ID, "password1", "New@Example.com")
		require.NoError(t, err)
	})

	t.Run("taken email", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", mock.Anything, mock.Anything).Return(true, nil)
		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(true, nil)

		err := f.auth.ChangeEmail(ctx, user.ID, "password1", "taken@example.com")
		assert.ErrorIs(t, err, model.ErrEmailExists)
	})
}

func TestAuth_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success cascades", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", model.PlainPassword("password1"), user.PasswordHash).Return(true, nil)
		f.users.On("DeleteCascade", mock.Anything, user.ID).Return(nil)

		err := f.auth.DeleteUser(ctx, user.ID, "password1")
		require.NoError(t, err)
		f.users.AssertCalled(t, "DeleteCascade", mock.Anything, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.hasher.On("Verify", mock.Anything, mock.Anything).Return(false, nil)

		err := f.auth.DeleteUser(ctx, user.ID, "wrongpw11")
		assert.ErrorIs(t, err, model.ErrPasswordMismatch)
		f.users.AssertNotCalled(t, "DeleteCascade", mock.Anything, mock.Anything)
	})

	t.Run("external account rejected", func(t *testing.T) {
		f := newAuthFixture()
		user := externalUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		err := f.auth.DeleteUser(ctx, user.ID, "password1")
		assert.ErrorIs(t, err, model.ErrUserExternal)
	})
}

func TestAuth_ChangeExternalUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		user := externalUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("ExistsByUsername", mock.Anything, model.Username("newbob")).Return(false, nil)
		f.pending.On("ExistsByUsername", mock.Anything, model.Username("newbob")).Return(false, nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.Username == "newbob"
		})).Return(nil)

		err := f.auth.ChangeExternalUsername(ctx, user.ID, "newbob")
		require.NoError(t, err)
	})

	t.Run("local account rejected", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		err := f.auth.ChangeExternalUsername(ctx, user.ID, "newbob")
		assert.ErrorIs(t, err, model.ErrUserNotExternal)
	})
}

func TestAuth_DeleteExternalUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		user := externalUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("DeleteCascade", mock.Anything, user.ID).Return(nil)

		err := f.auth.DeleteExternalUser(ctx, user.ID)
		require.NoError(t, err)
	})

	t.Run("local account rejected", func(t *testing.T) {
		f := newAuthFixture()
		user := localUser(t)

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		err := f.auth.DeleteExternalUser(ctx, user.ID)
		assert.ErrorIs(t, err, model.ErrUserNotExternal)
	})
}
