package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("user not found")

const userKeyPrefix = "user_"

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Email        string `json:"email"`
}

type Repository interface {
	Get(ctx context.Context, username string) (User, error)
	Put(ctx context.Context, u User) error
	Exists(ctx context.Context, username string) (bool, error)
}

// KVRepository stores each user as a JSON record under "user_<username>".
type KVRepository struct {
	kv KV
}

func NewKVRepository(kv KV) *KVRepository {
	return &KVRepository{kv: kv}
}

func (r *KVRepository) Get(ctx context.Context, username string) (User, error) {
	raw, ok, err := r.kv.Get(ctx, userKeyPrefix+username)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotFound
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", username, err)
	}
	return u, nil
}

func (r *KVRepository) Put(ctx context.Context, u User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, userKeyPrefix+u.Username, string(b))
}

func (r *KVRepository) Exists(ctx context.Context, username string) (bool, error) {
	_, ok, err := r.kv.Get(ctx, userKeyPrefix+username)
	return ok, err
}

// Delete removes a user record; deleting an unknown user is not an error.
func (r *KVRepository) Delete(ctx context.Context, username string) error {
	return r.kv.Delete(ctx, userKeyPrefix+username)
}
