package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svsh/linkup-server/internal/middleware"
	"github.com/svsh/linkup-server/internal/models"
	"github.com/svsh/linkup-server/internal/service"
	"github.com/svsh/linkup-server/internal/store"
	"github.com/svsh/linkup-server/internal/token"
)

// memStore is a map-backed UserStore so the full HTTP stack can run without
// a database.
type memStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]*models.User)}
}

func (m *memStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return user, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetAll(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, user *models.User) (*models.User, error) {
	if _, ok := m.users[user.ID]; !ok {
		return nil, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return user, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := newMemStore()
	tokens := token.NewManager("test-secret", time.Hour)
	accounts := service.NewUsers(users, tokens, log)

	r := chi.NewRouter()
	r.Use(middleware.Session(tokens, users, log))
	NewHandler(accounts).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, bearer string, body any) (*models.Envelope, int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env models.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return &env, resp.StatusCode
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email, username, password string) string {
	t.Helper()

	env, code := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": email, "username": username, "password": password, "role": "USER",
	})
	require.Equal(t, 200, code)
	require.Equal(t, 200, env.StatusCode)

	env, code = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": username, "password": password, "email": email,
	})
	require.Equal(t, 200, code)
	require.NotEmpty(t, env.Token)
	return env.Token
}

func TestRegisterLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	env, code := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@x.com", "username": "a", "password": "pw1", "role": "USER",
	})
	require.Equal(t, 200, code)
	require.NotNil(t, env.User)
	assert.Equal(t, int64(1), env.User.ID)

	env, code = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "a", "password": "pw1", "email": "a@x.com",
	})
	require.Equal(t, 200, code)
	assert.NotEmpty(t, env.Token)
	assert.NotEmpty(t, env.RefreshToken)
	assert.Equal(t, "24 Hours", env.ExpirationTime)
}

func TestLogin_BadPassword(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "a@x.com", "a", "pw1")

	env, code := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "a", "password": "nope", "email": "a@x.com",
	})
	assert.Equal(t, 500, code)
	assert.Equal(t, 500, env.StatusCode)
	assert.Empty(t, env.Token)
}

func TestRefreshTokenEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "a@x.com", "a", "pw1")

	login, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "a", "password": "pw1", "email": "a@x.com",
	})

	env, code := doJSON(t, http.MethodPost, srv.URL+"/api/auth/refreshToken", "", map[string]string{
		"token": login.Token, "refreshToken": login.RefreshToken,
	})
	require.Equal(t, 200, code)
	assert.NotEmpty(t, env.Token)
	assert.Equal(t, login.RefreshToken, env.RefreshToken)

	env, code = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refreshToken", "", map[string]string{
		"token": "tampered.token.value", "refreshToken": login.RefreshToken,
	})
	assert.Equal(t, 500, code)
	assert.Empty(t, env.Token)
}

func TestGetAllUsers_EmptyStore(t *testing.T) {
	srv := newTestServer(t)

	env, code := doJSON(t, http.MethodGet, srv.URL+"/api/users", "", nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "No users found", env.Message)
}

func TestGetAllUsers_WithBearer(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@x.com", "a", "pw1")

	env, code := doJSON(t, http.MethodGet, srv.URL+"/api/users", tok, nil)
	require.Equal(t, 200, code)
	require.Len(t, env.Users, 1)
	assert.Equal(t, "a@x.com", env.Users[0].Email)
}

func TestGetUserByID(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@x.com", "a", "pw1")

	env, code := doJSON(t, http.MethodGet, srv.URL+"/api/users/1/get", tok, nil)
	require.Equal(t, 200, code)
	require.NotNil(t, env.User)
	assert.Equal(t, int64(1), env.User.ID)

	_, code = doJSON(t, http.MethodGet, srv.URL+"/api/users/99/get", tok, nil)
	assert.Equal(t, 500, code)
}

func TestGetOwnInfo(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@x.com", "a", "pw1")

	env, code := doJSON(t, http.MethodGet, srv.URL+"/api/users/1", tok, nil)
	require.Equal(t, 200, code)
	require.NotNil(t, env.User)
	assert.Equal(t, "a@x.com", env.User.Email)

	// no bearer token, no principal
	env, code = doJSON(t, http.MethodGet, srv.URL+"/api/users/1", "", nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "User not found", env.Message)
}

func TestUpdateUser_SelfOnly(t *testing.T) {
	srv := newTestServer(t)
	tokA := registerAndLogin(t, srv, "a@x.com", "a", "pw1")
	tokB := registerAndLogin(t, srv, "b@x.com", "b", "pw2")

	patch := map[string]string{"username": "renamed", "email": "a@x.com", "role": "USER"}

	env, code := doJSON(t, http.MethodPut, srv.URL+"/api/users/1/update", tokA, patch)
	require.Equal(t, 200, code)
	assert.Equal(t, "renamed", env.User.Username)

	// another user's token cannot touch record 1
	env, code = doJSON(t, http.MethodPut, srv.URL+"/api/users/1/update", tokB, patch)
	assert.Equal(t, 500, code)
	assert.Equal(t, "Could not update user", env.Message)

	// no token at all
	env, code = doJSON(t, http.MethodPut, srv.URL+"/api/users/1/update", "", patch)
	assert.Equal(t, 404, code)
	assert.Equal(t, "User not found", env.Message)
}

func TestDeleteUser_SelfOnly(t *testing.T) {
	srv := newTestServer(t)
	tokA := registerAndLogin(t, srv, "a@x.com", "a", "pw1")
	tokB := registerAndLogin(t, srv, "b@x.com", "b", "pw2")

	env, code := doJSON(t, http.MethodDelete, srv.URL+"/api/users/1/delete", tokB, nil)
	assert.Equal(t, 500, code)
	assert.Equal(t, "Could not delete user", env.Message)

	env, code = doJSON(t, http.MethodDelete, srv.URL+"/api/users/1/delete", tokA, nil)
	require.Equal(t, 200, code)

	// the record is gone afterwards
	_, code = doJSON(t, http.MethodGet, srv.URL+"/api/users/1/get", tokB, nil)
	assert.Equal(t, 500, code)
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
