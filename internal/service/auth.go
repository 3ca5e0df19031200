package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/filmdb/auth-service/internal/logger"
	"github.com/filmdb/auth-service/internal/model"
)

// dummyPasswordHash is verified against when login hits an unknown email
// or an external-only account, so the response time does not reveal
// whether the account exists. It never matches any password.
const dummyPasswordHash = model.HashedPassword(
	"$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

// RegisterAck acknowledges a staged registration. The verification code
// travels to the user out of band; the web adapter must not echo it.
type RegisterAck struct {
	Email            string
	VerificationCode string
	ExpiresAt        time.Time
}

// UserView is the public projection of a persisted account.
type UserView struct {
	ID        uuid.UUID
	Username  string
	Email     string
	CreatedAt time.Time
}

// LoginResult carries the issued token pair and the account's username.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Username     string
}

// Auth orchestrates the credential and token lifecycle: registration with
// verification staging, login, OAuth login/registration, token refresh
// and the self-service account mutations.
type Auth struct {
	users        model.UserStore
	logins       model.UserLoginStore
	pending      model.PendingRegistrationStore
	hasher       model.PasswordHasher
	codes        model.CodeGenerator
	oauth        model.OAuthExchanger
	events       model.EventSink
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(
	users model.UserStore,
	logins model.UserLoginStore,
	pending model.PendingRegistrationStore,
	hasher model.PasswordHasher,
	codes model.CodeGenerator,
	oauth model.OAuthExchanger,
	events model.EventSink,
	tokenService *TokenService,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:        users,
		logins:       logins,
		pending:      pending,
		hasher:       hasher,
		codes:        codes,
		oauth:        oauth,
		events:       events,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register validates a new local account, stages it as a
// PendingRegistration and returns the acknowledgement. No account exists
// and no event is published until the code is verified.
func (a *Auth) Register(ctx context.Context, username, email, password string) (RegisterAck, error) {
	a.logger.Debug("Auth service: starting user registration")

	uname, err := model.NewUsername(username)
	if err != nil {
		return RegisterAck{}, err
	}
	addr, err := model.NewEmail(email)
	if err != nil {
		return RegisterAck{}, err
	}
	pass, err := model.NewPlainPassword(password)
	if err != nil {
		return RegisterAck{}, err
	}

	if err := a.checkEmailFree(ctx, addr); err != nil {
		return RegisterAck{}, err
	}
	if err := a.checkUsernameFree(ctx, uname); err != nil {
		return RegisterAck{}, err
	}

	hash, err := a.hasher.Hash(pass)
	if err != nil {
		return RegisterAck{}, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := a.codes.Generate()
	if err != nil {
		return RegisterAck{}, fmt.Errorf("failed to generate verification code: %w", err)
	}

	now := time.Now()
	pendingReg := model.PendingRegistration{
		Code:         code,
		Username:     uname,
		Email:        addr,
		PasswordHash: hash,
		ExpiresAt:    now.Add(model.PendingRegistrationTTL),
		CreatedAt:    now,
	}

	if err := a.pending.Create(ctx, pendingReg); err != nil {
		return RegisterAck{}, fmt.Errorf("failed to create pending registration: %w", err)
	}

	a.logger.Info("Auth service: registration staged",
		"username", uname.String())

	return RegisterAck{
		Email:            addr.String(),
		VerificationCode: code,
		ExpiresAt:        pendingReg.ExpiresAt,
	}, nil
}

// VerifyRegistration consumes a verification code, creates the account
// and publishes the UserRegistered event. The code is single-use: a
// second verification with the same code fails ErrCodeInvalid.
func (a *Auth) VerifyRegistration(ctx context.Context, code string) (UserView, error) {
	a.logger.Debug("Auth service: verifying registration")

	pendingReg, err := a.pending.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return UserView{}, model.ErrCodeInvalid
		}
		return UserView{}, fmt.Errorf("failed to get pending registration: %w", err)
	}
	if pendingReg.Expired(time.Now()) {
		return UserView{}, model.ErrCodeInvalid
	}

	user := model.NewLocalUser(pendingReg.Username, pendingReg.Email, pendingReg.PasswordHash)

	saved, err := a.pending.ConsumeAndCreate(ctx, code, user)
	if err != nil {
		if errors.Is(err, model.ErrCodeInvalid) {
			return UserView{}, model.ErrCodeInvalid
		}
		return UserView{}, fmt.Errorf("failed to consume registration: %w", err)
	}

	if err := a.events.Publish(ctx, model.UserRegistered{
		UserID:     saved.ID,
		Email:      saved.Email,
		OccurredAt: time.Now(),
	}); err != nil {
		// The account exists; delivery is the sink's problem from here.
		a.logger.Error("Auth service: failed to publish user registered event",
			"user_id", saved.ID,
			"error", err.Error())
	}

	a.logger.Info("Auth service: user registration completed",
		"user_id", saved.ID,
		"username", saved.Username.String())

	return userView(saved), nil
}

// Login authenticates a local account and issues a token pair. Unknown
// email, external-only account and wrong password all fail with the same
// ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, password string, client model.ClientContext) (LoginResult, error) {
	a.logger.Debug("Auth service: starting user login")

	addr, err := model.NewEmail(email)
	if err != nil {
		return LoginResult{}, model.ErrInvalidCredentials
	}

	user, err := a.users.GetByEmail(ctx, addr)
	exists := err == nil
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Always run verification so timing stays flat across the branches.
	target := dummyPasswordHash
	if exists && !user.IsExternal() {
		target = user.PasswordHash
	}
	ok, verifyErr := a.hasher.Verify(model.PlainPassword(password), target)
	if !exists || user.IsExternal() || verifyErr != nil || !ok {
		return LoginResult{}, model.ErrInvalidCredentials
	}

	pair, err := a.tokenService.Issue(ctx, user.ID, client)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID)

	return loginResult(pair, user), nil
}

// RefreshAccessToken rotates a refresh token and returns the new pair.
func (a *Auth) RefreshAccessToken(ctx context.Context, refreshToken string, client model.ClientContext) (TokenPair, error) {
	return a.tokenService.Refresh(ctx, refreshToken, client)
}

// OAuthLoginOrRegister exchanges an authorization code with the provider,
// then either logs the linked account in or registers a new external
// account. A provider email already owned by any account fails
// ErrEmailExists; external identities never merge into existing accounts.
func (a *Auth) OAuthLoginOrRegister(ctx context.Context, code string, client model.ClientContext) (LoginResult, error) {
	a.logger.Debug("Auth service: starting oauth login")

	info, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return LoginResult{}, err
	}

	login, err := a.logins.GetByProvider(ctx, info.Key, info.Name)
	if err == nil {
		return a.oauthLogin(ctx, login, client)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("failed to get user login: %w", err)
	}

	return a.oauthRegister(ctx, info, client)
}

func (a *Auth) oauthLogin(ctx context.Context, login model.UserLogin, client model.ClientContext) (LoginResult, error) {
	user, err := a.users.GetByID(ctx, login.UserID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get linked user: %w", err)
	}

	pair, err := a.tokenService.Issue(ctx, user.ID, client)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: external user logged in",
		"user_id", user.ID,
		"provider", user.ProviderName.String())

	return loginResult(pair, user), nil
}

func (a *Auth) oauthRegister(ctx context.Context, info model.ProviderUserInfo, client model.ClientContext) (LoginResult, error) {
	taken, err := a.users.ExistsByEmail(ctx, info.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return LoginResult{}, model.ErrEmailExists
	}

	user := model.NewExternalUser(info.Email, info.Key, info.Name)
	login := model.NewUserLogin(user.ID, info.Key, info.Name)

	saved, err := a.users.CreateExternal(ctx, user, login)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to create external user: %w", err)
	}

	pair, err := a.tokenService.Issue(ctx, saved.ID, client)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: external user registered",
		"user_id", saved.ID,
		"provider", saved.ProviderName.String())

	return loginResult(pair, saved), nil
}

// ChangePassword replaces a local account's password after verifying the
// current one.
func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	current, err := model.NewPlainPassword(currentPassword)
	if err != nil {
		return err
	}
	next, err := model.NewPlainPassword(newPassword)
	if err != nil {
		return err
	}

	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.ChangePassword(current, next, a.hasher); err != nil {
		return err
	}

	if err := a.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: password changed",
		"user_id", user.ID)

	return nil
}

// ChangeUsername replaces a local account's username. Requires the
// current password.
func (a *Auth) ChangeUsername(ctx context.Context, userID uuid.UUID, currentPassword, newUsername string) error {
	uname, err := model.NewUsername(newUsername)
	if err != nil {
		return err
	}

	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsExternal() {
		return model.ErrUserExternal
	}
	if err := a.verifyCurrentPassword(user, currentPassword); err != nil {
		return err
	}

	if user.Username != uname {
		if err := a.checkUsernameFree(ctx, uname); err != nil {
			return err
		}
	}

	user.ChangeUsername(uname)
	if err := a.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: username changed",
		"user_id", user.ID)

	return nil
}

// ChangeEmail replaces a local account's email. Requires the current
// password.
func (a *Auth) ChangeEmail(ctx context.Context, userID uuid.UUID, currentPassword, newEmail string) error {
	addr, err := model.NewEmail(newEmail)
	if err != nil {
		return err
	}

	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsExternal() {
		return model.ErrUserExternal
	}
	if err := a.verifyCurrentPassword(user, currentPassword); err != nil {
		return err
	}

	if user.Email != addr {
		if err := a.checkEmailFree(ctx, addr); err != nil {
			return err
		}
	}

	user.ChangeEmail(addr)
	if err := a.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: email changed",
		"user_id", user.ID)

	return nil
}

// DeleteUser removes a local account and all its refresh tokens.
// Requires the current password.
func (a *Auth) DeleteUser(ctx context.Context, userID uuid.UUID, currentPassword string) error {
	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsExternal() {
		return model.ErrUserExternal
	}
	if err := a.verifyCurrentPassword(user, currentPassword); err != nil {
		return err
	}

	if err := a.users.DeleteCascade(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	a.logger.Info("Auth service: user deleted",
		"user_id", user.ID)

	return nil
}

// ChangeExternalUsername replaces an external account's username. There
// is no password to re-check.
func (a *Auth) ChangeExternalUsername(ctx context.Context, userID uuid.UUID, newUsername string) error {
	uname, err := model.NewUsername(newUsername)
	if err != nil {
		return err
	}

	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsExternal() {
		return model.ErrUserNotExternal
	}

	if user.Username != uname {
		if err := a.checkUsernameFree(ctx, uname); err != nil {
			return err
		}
	}

	user.ChangeUsername(uname)
	if err := a.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: external username changed",
		"user_id", user.ID)

	return nil
}

// DeleteExternalUser removes an external account together with its
// provider link and refresh tokens.
func (a *Auth) DeleteExternalUser(ctx context.Context, userID uuid.UUID) error {
	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsExternal() {
		return model.ErrUserNotExternal
	}

	if err := a.users.DeleteCascade(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete external user: %w", err)
	}

	a.logger.Info("Auth service: external user deleted",
		"user_id", user.ID)

	return nil
}

func (a *Auth) getUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (a *Auth) verifyCurrentPassword(user model.User, raw string) error {
	ok, err := a.hasher.Verify(model.PlainPassword(raw), user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.ErrPasswordMismatch
	}
	return nil
}

// checkEmailFree guards both persisted users and staged registrations so
// two pending signups cannot claim the same address.
func (a *Auth) checkEmailFree(ctx context.Context, email model.Email) error {
	taken, err := a.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return model.ErrEmailExists
	}
	staged, err := a.pending.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check pending email: %w", err)
	}
	if staged {
		return model.ErrEmailExists
	}
	return nil
}

func (a *Auth) checkUsernameFree(ctx context.Context, username model.Username) error {
	taken, err := a.users.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return model.ErrUsernameExists
	}
	staged, err := a.pending.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check pending username: %w", err)
	}
	if staged {
		return model.ErrUsernameExists
	}
	return nil
}

func userView(user model.User) UserView {
	return UserView{
		ID:        user.ID,
		Username:  user.Username.String(),
		Email:     user.Email.String(),
		CreatedAt: user.CreatedAt,
	}
}

func loginResult(pair TokenPair, user model.User) LoginResult {
	return LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		Username:     user.Username.String(),
	}
}
