package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kanmind-api/domain"
)

// CreateComment inserts a comment and reads back the server-assigned id
// and timestamp in the same statement.
func (s *Store) CreateComment(ctx context.Context, taskID, authorID int64, content string) (domain.Comment, error) {
	c := domain.Comment{TaskID: taskID, AuthorID: authorID, Content: content}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (task_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		taskID, authorID, content,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// CommentByID fetches one comment.
func (s *Store) CommentByID(ctx context.Context, id int64) (domain.Comment, error) {
	var c domain.Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, task_id, author_id, content, created_at
		FROM comments WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Comment{}, NotFoundError{Entity: "comment", ID: id}
	}
	if err != nil {
		return domain.Comment{}, fmt.Errorf("comment by id: %w", err)
	}
	return c, nil
}

// CommentsByTask returns a task's comments oldest first.
func (s *Store) CommentsByTask(ctx context.Context, taskID int64) ([]domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, author_id, content, created_at
		FROM comments WHERE task_id = $1
		ORDER BY created_at, id`,
		taskID)
	if err != nil {
		return nil, fmt.Errorf("comments by task: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes one comment.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return NotFoundError{Entity: "comment", ID: id}
	}
	return nil
}
