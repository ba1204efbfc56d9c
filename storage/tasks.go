package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kanmind-api/domain"
)

const taskColumns = "id, board_id, title, description, status, priority, assignee_id, reviewer_id, due_date"

func scanTask(scan func(...any) error) (domain.Task, error) {
	var t domain.Task
	var status, priority string
	var due sql.NullTime
	err := scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &status, &priority,
		&t.AssigneeID, &t.ReviewerID, &due)
	if err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	if due.Valid {
		d := due.Time.Format("2006-01-02")
		t.DueDate = &d
	}
	return t, nil
}

// CreateTask inserts a task and returns it with its assigned id. The board
// reference is immutable from then on.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (board_id, title, description, status, priority, assignee_id, reviewer_id, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		t.BoardID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.AssigneeID, t.ReviewerID, t.DueDate,
	).Scan(&t.ID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// TaskByID fetches one task.
func (s *Store) TaskByID(ctx context.Context, id int64) (domain.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, NotFoundError{Entity: "task", ID: id}
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("task by id: %w", err)
	}
	return t, nil
}

// UpdateTask persists the mutable task fields. BoardID is deliberately
// excluded from the statement.
func (s *Store) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    assignee_id = $5, reviewer_id = $6, due_date = $7
		WHERE id = $8`,
		t.Title, t.Description, string(t.Status), string(t.Priority),
		t.AssigneeID, t.ReviewerID, t.DueDate, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return NotFoundError{Entity: "task", ID: t.ID}
	}
	return nil
}

// DeleteTask removes a task; its comments cascade away with it.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return NotFoundError{Entity: "task", ID: id}
	}
	return nil
}

func (s *Store) queryTasks(ctx context.Context, where string, arg any) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE "+where+" ORDER BY id", arg)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// TasksByBoard returns the current tasks of a board in creation order.
func (s *Store) TasksByBoard(ctx context.Context, boardID int64) ([]domain.Task, error) {
	return s.queryTasks(ctx, "board_id = $1", boardID)
}

// TasksByAssignee returns tasks where the user holds the assignee relation.
// This is an exact-match filter; no membership check belongs here.
func (s *Store) TasksByAssignee(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.queryTasks(ctx, "assignee_id = $1", userID)
}

// TasksByReviewer returns tasks where the user holds the reviewer relation.
func (s *Store) TasksByReviewer(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.queryTasks(ctx, "reviewer_id = $1", userID)
}

// CommentCounts returns the live comment count for each of the given
// tasks. Tasks without comments map to zero.
func (s *Store) CommentCounts(ctx context.Context, taskIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(taskIDs))
	for _, id := range taskIDs {
		counts[id] = 0
	}
	if len(taskIDs) == 0 {
		return counts, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, COUNT(*)
		FROM comments
		WHERE task_id = ANY($1)
		GROUP BY task_id`,
		pq.Array(taskIDs))
	if err != nil {
		return nil, fmt.Errorf("comment counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
