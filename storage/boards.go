package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kanmind-api/domain"
)

// CreateBoard inserts a board owned by ownerID with the given member set,
// atomically. Duplicate member ids collapse to one row.
func (s *Store) CreateBoard(ctx context.Context, title string, ownerID int64, memberIDs []int64) (domain.Board, error) {
	board := domain.Board{Title: title, OwnerID: ownerID}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO boards (title, owner_id)
			VALUES ($1, $2)
			RETURNING id`,
			title, ownerID,
		).Scan(&board.ID); err != nil {
			return fmt.Errorf("insert board: %w", err)
		}
		return insertMembers(ctx, tx, board.ID, memberIDs)
	})
	if err != nil {
		return domain.Board{}, err
	}
	board.Members = dedupe(memberIDs)
	return board, nil
}

func insertMembers(ctx context.Context, tx *sql.Tx, boardID int64, memberIDs []int64) error {
	if len(memberIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO board_members (board_id, user_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`,
		boardID, pq.Array(memberIDs))
	if err != nil {
		return fmt.Errorf("insert members: %w", err)
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// BoardByID fetches one board with its full member set.
func (s *Store) BoardByID(ctx context.Context, id int64) (domain.Board, error) {
	var b domain.Board
	err := s.db.QueryRowContext(ctx, `
		SELECT b.id, b.title, b.owner_id,
		       COALESCE(array_agg(m.user_id ORDER BY m.user_id) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM boards b
		LEFT JOIN board_members m ON m.board_id = b.id
		WHERE b.id = $1
		GROUP BY b.id`,
		id,
	).Scan(&b.ID, &b.Title, &b.OwnerID, pq.Array(&b.Members))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Board{}, NotFoundError{Entity: "board", ID: id}
	}
	if err != nil {
		return domain.Board{}, fmt.Errorf("board by id: %w", err)
	}
	return b, nil
}

// ListBoards returns every board with its member set, in creation order.
// Per-principal visibility is the domain layer's job, not a query concern.
func (s *Store) ListBoards(ctx context.Context) ([]domain.Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.title, b.owner_id,
		       COALESCE(array_agg(m.user_id ORDER BY m.user_id) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM boards b
		LEFT JOIN board_members m ON m.board_id = b.id
		GROUP BY b.id
		ORDER BY b.id`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := []domain.Board{}
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.Title, &b.OwnerID, pq.Array(&b.Members)); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// UpdateBoard replaces the board's title and member set in one transaction.
// The owner is immutable and never touched here.
func (s *Store) UpdateBoard(ctx context.Context, id int64, title string, memberIDs []int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE boards SET title = $1 WHERE id = $2", title, id)
		if err != nil {
			return fmt.Errorf("update board: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return NotFoundError{Entity: "board", ID: id}
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM board_members WHERE board_id = $1", id); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return insertMembers(ctx, tx, id, memberIDs)
	})
}

// DeleteBoard removes a board. Its tasks and their comments go with it
// through the schema's ON DELETE CASCADE, so the whole subtree disappears
// in one atomic statement.
func (s *Store) DeleteBoard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM boards WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return NotFoundError{Entity: "board", ID: id}
	}
	return nil
}
