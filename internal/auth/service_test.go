package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradepost-erp/tradepost/internal/shared"
)

type memRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int64]User{}}
}

func (r *memRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *memRepo) FindByID(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *memRepo) List(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memRepo) Create(ctx context.Context, u User) (User, error) {
	if _, err := r.FindByEmail(ctx, u.Email); err == nil {
		return User{}, ErrEmailTaken
	}
	r.nextID++
	u.ID = r.nextID
	u.IsActive = true
	r.users[u.ID] = u
	return u, nil
}

func (r *memRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return NewService(repo, "test-secret", time.Hour), repo
}

func registerUser(t *testing.T, svc *Service) User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name: "Admin", Email: "admin@tradepost.local", Password: "secret1", Role: "admin",
	})
	require.NoError(t, err)
	return u
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerUser(t, svc)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email: "Admin@Tradepost.local", Password: "secret1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, u.ID, resp.User.ID)

	claims, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "admin@tradepost.local", claims.Email)
	require.Equal(t, "admin", claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	registerUser(t, svc)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email: "admin@tradepost.local", Password: "wrong-pass",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo := newTestService(t)
	u := registerUser(t, svc)
	require.NoError(t, repo.SetActive(context.Background(), u.ID, false))

	_, err := svc.Login(context.Background(), LoginRequest{
		Email: "admin@tradepost.local", Password: "secret1",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestService(t)
	registerUser(t, svc)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email: "admin@tradepost.local", Password: "secret1",
	})
	require.NoError(t, err)

	other := NewService(newMemRepo(), "other-secret", time.Hour)
	_, err = other.ParseToken(resp.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareLoadsActor(t *testing.T) {
	svc, _ := newTestService(t)
	registerUser(t, svc)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email: "admin@tradepost.local", Password: "secret1",
	})
	require.NoError(t, err)

	var got shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	svc.Middleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, resp.User.ID, got.ID)
	require.Equal(t, "admin", got.Role)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	svc, _ := newTestService(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	svc.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
