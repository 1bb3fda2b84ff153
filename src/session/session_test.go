package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *KVRepository) {
	t.Helper()
	repo := NewKVRepository(NewMemoryKV())
	svc := NewService(repo, nil)
	svc.Cost = bcrypt.MinCost
	return svc, repo
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		email    string
		key      string
	}{
		{"all valid", "taro1", "password1", "taro@example.com", ""},
		{"short username wins over bad password", "ab", "x", "bad", "signup.username_invalid"},
		{"username symbols", "taro_1", "password1", "taro@example.com", "signup.username_invalid"},
		{"username too long", "abcdefghijklmnopq", "password1", "taro@example.com", "signup.username_invalid"},
		{"password too short", "taro1", "short", "bad", "signup.password_invalid"},
		{"password too long", "taro1", "123456789012345678901", "taro@example.com", "signup.password_invalid"},
		{"multibyte password counts runes", "taro1", "パスワードですよね", "taro@example.com", ""},
		{"email without dot", "taro1", "password1", "taro@example", "signup.email_invalid"},
		{"email with space", "taro1", "password1", "ta ro@example.com", "signup.email_invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.username, tt.password, tt.email)
			if tt.key == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.key, MessageKey(err))
		})
	}
}

func TestSignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	u, err := svc.SignUp(ctx, "hanako", "secretpass", "hanako@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hanako", u.Username)
	assert.NotEqual(t, "secretpass", u.PasswordHash)

	stored, err := repo.Get(ctx, "hanako")
	require.NoError(t, err)
	assert.Equal(t, u, stored)

	_, err = svc.SignUp(ctx, "hanako", "otherpass1", "other@example.com")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.Equal(t, "signup.duplicate", MessageKey(err))

	got, err := svc.Login(ctx, "hanako", "secretpass")
	require.NoError(t, err)
	assert.Equal(t, "hanako@example.com", got.Email)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.SignUp(ctx, "hanako", "secretpass", "hanako@example.com")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "", "secretpass")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "auth.missing_fields", MessageKey(err))

	_, err = svc.Login(ctx, "nobody", "secretpass")
	assert.ErrorIs(t, err, ErrAuthMismatch)
	assert.Equal(t, "auth.unknown_user", MessageKey(err))

	_, err = svc.Login(ctx, "hanako", "wrongpass")
	assert.ErrorIs(t, err, ErrAuthMismatch)
	assert.Equal(t, "auth.password_mismatch", MessageKey(err))

	assert.Equal(t, "error.internal", MessageKey(errors.New("boom")))
}

func TestSeedSkipsExisting(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	_, err := svc.SignUp(ctx, "hanako", "secretpass", "hanako@example.com")
	require.NoError(t, err)

	err = svc.Seed(ctx, []SeedUser{
		{Username: "hanako", Password: "replaced1", Email: "x@example.com"},
		{Username: "demo", Password: "demopass", Email: "demo@example.com"},
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "hanako", "secretpass")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "demo", "demopass")
	assert.NoError(t, err)

	ok, err := repo.Exists(ctx, "demo")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")
	kv, err := OpenSQLite(path)
	require.NoError(t, err)

	repo := NewKVRepository(kv)
	require.NoError(t, repo.Put(ctx, User{Username: "taro", PasswordHash: "h1", Email: "a@b.c"}))
	require.NoError(t, repo.Put(ctx, User{Username: "taro", PasswordHash: "h2", Email: "a@b.c"}))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLite(path)
	require.NoError(t, err)
	defer kv.Close()
	repo = NewKVRepository(kv)

	u, err := repo.Get(ctx, "taro")
	require.NoError(t, err)
	assert.Equal(t, "h2", u.PasswordHash)

	require.NoError(t, repo.Delete(ctx, "taro"))
	_, err = repo.Get(ctx, "taro")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGateNotifies(t *testing.T) {
	g := NewGate()
	var seen []bool
	g.OnChange(func(ok bool) { seen = append(seen, ok) })

	assert.False(t, g.IsAuthenticated())
	g.SignOut()
	g.SignIn("taro")
	g.SignIn("taro")
	assert.True(t, g.IsAuthenticated())
	assert.Equal(t, "taro", g.User())
	g.SignOut()

	assert.Equal(t, []bool{true, false}, seen)
}
