package api

import (
	"context"
	"time"

	"kanmind-api/domain"
	"kanmind-api/storage"
)

// Store abstracts persistence for handlers. *storage.Store is the real
// implementation; tests use in-memory mocks.
type Store interface {
	CreateUser(ctx context.Context, email, fullname, passwordHash string) (storage.User, error)
	UserByID(ctx context.Context, id int64) (storage.User, error)
	UserByEmail(ctx context.Context, email string) (storage.User, error)
	UsersByIDs(ctx context.Context, ids []int64) (map[int64]storage.User, error)

	CreateBoard(ctx context.Context, title string, ownerID int64, memberIDs []int64) (domain.Board, error)
	BoardByID(ctx context.Context, id int64) (domain.Board, error)
	ListBoards(ctx context.Context) ([]domain.Board, error)
	UpdateBoard(ctx context.Context, id int64, title string, memberIDs []int64) error
	DeleteBoard(ctx context.Context, id int64) error

	CreateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	TaskByID(ctx context.Context, id int64) (domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id int64) error
	TasksByBoard(ctx context.Context, boardID int64) ([]domain.Task, error)
	TasksByAssignee(ctx context.Context, userID int64) ([]domain.Task, error)
	TasksByReviewer(ctx context.Context, userID int64) ([]domain.Task, error)
	CommentCounts(ctx context.Context, taskIDs []int64) (map[int64]int, error)

	CreateComment(ctx context.Context, taskID, authorID int64, content string) (domain.Comment, error)
	CommentByID(ctx context.Context, id int64) (domain.Comment, error)
	CommentsByTask(ctx context.Context, taskID int64) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
}

// NotFoundError marks store errors for missing rows so handlers can map
// them to 404 without depending on a concrete store type.
type NotFoundError interface {
	error
	NotFound()
}

// Authenticator resolves the Authorization header into a Principal. The
// Claims form skips the account lookup; logout uses it to reach the token
// id of an already-verified token.
type Authenticator interface {
	Principal(ctx context.Context, authHeader string) (domain.Principal, error)
	Claims(authHeader string) (Claims, error)
}

// TokenIssuer mints bearer tokens for authenticated accounts. Only the
// local HS256 mode can issue; in JWKS mode the external identity provider
// owns token issuance.
type TokenIssuer interface {
	IssueToken(userID int64) (string, error)
}

// Revoker invalidates bearer tokens before their natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}
