package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kanmind-api/domain"
)

// User is a registered account. PasswordHash never leaves this package
// except through VerifyPassword in the api layer.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Fullname     string `json:"fullname"`
	PasswordHash string `json:"-"`
	Superuser    bool   `json:"-"`
}

// Principal derives the per-request identity from the stored account.
func (u User) Principal() domain.Principal {
	return domain.Principal{ID: u.ID, Superuser: u.Superuser}
}

// ErrEmailTaken is returned by CreateUser when the email is already
// registered.
var ErrEmailTaken = errors.New("email already registered")

const userColumns = "id, email, fullname, password_hash, is_superuser"

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Fullname, &u.PasswordHash, &u.Superuser)
	return u, err
}

// CreateUser inserts a new account and returns it with its assigned id.
func (s *Store) CreateUser(ctx context.Context, email, fullname, passwordHash string) (User, error) {
	u := User{Email: email, Fullname: fullname, PasswordHash: passwordHash}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, fullname, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`,
		email, fullname, passwordHash,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UserByID fetches an account by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, NotFoundError{Entity: "user", ID: id}
	}
	if err != nil {
		return User{}, fmt.Errorf("user by id: %w", err)
	}
	return u, nil
}

// UserByEmail fetches an account by email address.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, NotFoundError{Entity: "user"}
	}
	if err != nil {
		return User{}, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

// UsersByIDs fetches the accounts for the given ids, keyed by id. Missing
// ids are simply absent from the result; callers decide whether that is an
// error.
func (s *Store) UsersByIDs(ctx context.Context, ids []int64) (map[int64]User, error) {
	users := make(map[int64]User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Fullname, &u.PasswordHash, &u.Superuser); err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}
