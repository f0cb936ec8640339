// Package service implements the account operations: registration, login,
// token refresh, and CRUD over user records. Every operation returns a
// response envelope; no failure escapes an operation's boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/svsh/linkup-server/internal/models"
	"github.com/svsh/linkup-server/internal/store"
	"github.com/svsh/linkup-server/internal/token"
)

// ErrInvalidCredentials indicates that provided login credentials are incorrect.
var ErrInvalidCredentials = errors.New("invalid credentials")

// expirationLabel is the human-readable expiry returned with issued tokens.
const expirationLabel = "24 Hours"

// Users orchestrates account operations over the credential store and the
// token manager.
type Users struct {
	store  store.UserStore
	tokens *token.Manager
	log    *logrus.Logger
}

func NewUsers(st store.UserStore, tokens *token.Manager, log *logrus.Logger) *Users {
	return &Users{store: st, tokens: tokens, log: log}
}

func failure(err error) *models.Envelope {
	return &models.Envelope{StatusCode: http.StatusInternalServerError, Error: err.Error()}
}

func notFound() *models.Envelope {
	return &models.Envelope{StatusCode: http.StatusNotFound, Message: "No user found"}
}

// Register hashes the password, persists the record, and returns the created
// user. The plaintext password is discarded immediately after hashing.
func (s *Users) Register(ctx context.Context, email, username, password string, role models.Role) *models.Envelope {
	if !role.Valid() {
		return failure(fmt.Errorf("unknown role %q", role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return failure(err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		s.log.WithError(err).WithField("email", email).Warn("registration failed")
		return failure(err)
	}

	return &models.Envelope{
		StatusCode: http.StatusOK,
		Message:    "User registered successfully",
		User:       created,
	}
}

// Login verifies the credentials keyed by username, then loads the full
// record by email and issues an access token and a refresh token.
func (s *Users) Login(ctx context.Context, username, password, email string) *models.Envelope {
	if err := s.authenticate(ctx, username, password); err != nil {
		s.log.WithField("username", username).Warn("login rejected")
		return failure(err)
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return failure(err)
	}

	accessToken, err := s.tokens.Issue(user.Email, nil)
	if err != nil {
		return failure(err)
	}
	refreshToken, err := s.tokens.Issue(user.Email, nil)
	if err != nil {
		return failure(err)
	}

	return &models.Envelope{
		StatusCode:     http.StatusOK,
		Message:        "User logged in successfully",
		Token:          accessToken,
		RefreshToken:   refreshToken,
		ExpirationTime: expirationLabel,
	}
}

// authenticate fails with ErrInvalidCredentials when no record matches the
// username or the hash comparison fails; the two cases are indistinguishable
// to the caller.
func (s *Users) authenticate(ctx context.Context, username, password string) error {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// RefreshToken re-validates the presented access token against its subject's
// record and, on success, issues a fresh access token. The refresh token is
// echoed back unchanged.
func (s *Users) RefreshToken(ctx context.Context, oldToken, refreshToken string) *models.Envelope {
	subject, err := s.tokens.ExtractSubject(oldToken)
	if err != nil {
		return failure(err)
	}

	user, err := s.store.GetByEmail(ctx, subject)
	if err != nil {
		return failure(err)
	}

	ok, err := s.tokens.Validate(oldToken, user.Email)
	if err != nil {
		return failure(err)
	}
	if !ok {
		return failure(errors.New("could not refresh token"))
	}

	fresh, err := s.tokens.Issue(user.Email, nil)
	if err != nil {
		return failure(err)
	}

	return &models.Envelope{
		StatusCode:     http.StatusOK,
		Message:        "User refreshed successfully",
		Token:          fresh,
		RefreshToken:   refreshToken,
		ExpirationTime: expirationLabel,
	}
}

// GetAllUsers returns every record. An empty store reads as not-found, not as
// an empty success list.
func (s *Users) GetAllUsers(ctx context.Context) *models.Envelope {
	users, err := s.store.GetAll(ctx)
	if err != nil {
		return failure(err)
	}
	if len(users) == 0 {
		return &models.Envelope{StatusCode: http.StatusNotFound, Message: "No users found"}
	}
	return &models.Envelope{
		StatusCode: http.StatusOK,
		Message:    "All users successfully",
		Users:      users,
	}
}

// GetUserByID returns the record with the given id. Any lookup failure,
// including absence, maps to a 500 envelope carrying the store's error text.
func (s *Users) GetUserByID(ctx context.Context, id int64) *models.Envelope {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return failure(err)
	}
	return &models.Envelope{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("User with ID %d successfully found", id),
		User:       user,
	}
}

// GetInfo returns the record keyed by email.
func (s *Users) GetInfo(ctx context.Context, email string) *models.Envelope {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound()
		}
		return failure(err)
	}
	return &models.Envelope{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("User with email %s successfully found", email),
		User:       user,
	}
}

// UserPatch carries replacement fields for an update. Username, email, and
// role apply unconditionally; the password only when non-empty.
type UserPatch struct {
	Username string
	Email    string
	Role     models.Role
	Password string
}

// UpdateUser applies the patch to an existing record. A non-empty patch
// password is re-hashed; an empty one leaves the stored hash untouched.
func (s *Users) UpdateUser(ctx context.Context, id int64, patch UserPatch) *models.Envelope {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound()
		}
		return failure(err)
	}

	existing.Username = patch.Username
	existing.Email = patch.Email
	existing.Role = patch.Role
	if patch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return failure(err)
		}
		existing.PasswordHash = string(hash)
	}

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return failure(err)
	}

	return &models.Envelope{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("User with ID %d successfully updated", id),
		User:       updated,
	}
}

// DeleteUser removes the record with the given id.
func (s *Users) DeleteUser(ctx context.Context, id int64) *models.Envelope {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound()
		}
		return failure(err)
	}
	return &models.Envelope{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("User with ID %d successfully deleted", id),
	}
}
