package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"kanmind-api/domain"
)

type createCommentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
}

// loadCommentBoard resolves the task named in the route to its board. An
// unknown task id is reported as NotFound by the policy, so the board
// pointer stays nil in that case.
func loadCommentBoard(c echo.Context, store Store) (taskID int64, board *domain.Board, ok bool) {
	id, err := idParam(c, "task_id")
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid task id"})
		return 0, nil, false
	}
	ctx := c.Request().Context()
	task, err := store.TaskByID(ctx, id)
	if err != nil {
		var nf NotFoundError
		if errors.As(err, &nf) {
			return id, nil, true
		}
		_ = storeError(c, err)
		return 0, nil, false
	}
	b, err := store.BoardByID(ctx, task.BoardID)
	if err != nil {
		_ = storeError(c, err)
		return 0, nil, false
	}
	return task.ID, &b, true
}

func commentResponses(c echo.Context, store Store, comments []domain.Comment) ([]commentResponse, error) {
	authorIDs := make([]int64, 0, len(comments))
	for _, cm := range comments {
		authorIDs = append(authorIDs, cm.AuthorID)
	}
	authors, err := store.UsersByIDs(c.Request().Context(), authorIDs)
	if err != nil {
		return nil, err
	}
	out := make([]commentResponse, 0, len(comments))
	for _, cm := range comments {
		resp := commentResponse{ID: cm.ID, CreatedAt: cm.CreatedAt, Content: cm.Content}
		if u, ok := authors[cm.AuthorID]; ok {
			resp.Author = u.Fullname
		}
		out = append(out, resp)
	}
	return out, nil
}

func listComments(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		taskID, board, ok := loadCommentBoard(c, store)
		if !ok {
			return nil
		}
		// Reading comments is gated exactly like writing them: membership
		// of the parent task's board.
		if d := domain.CanCreateComment(p, board); d != domain.Allow {
			return refuse(c, d)
		}
		comments, err := store.CommentsByTask(c.Request().Context(), taskID)
		if err != nil {
			return storeError(c, err)
		}
		resp, err := commentResponses(c, store, comments)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func createComment(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		taskID, board, ok := loadCommentBoard(c, store)
		if !ok {
			return nil
		}
		if d := domain.CanCreateComment(p, board); d != domain.Allow {
			return refuse(c, d)
		}
		var req createCommentRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
		}
		if req.Content == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "content required"})
		}

		comment, err := store.CreateComment(c.Request().Context(), taskID, p.ID, req.Content)
		if err != nil {
			return storeError(c, err)
		}
		resp, err := commentResponses(c, store, []domain.Comment{comment})
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, resp[0])
	}
}

func deleteComment(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		taskID, err := idParam(c, "task_id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid task id"})
		}
		commentID, err := idParam(c, "comment_id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid comment id"})
		}

		ctx := c.Request().Context()
		comment, err := store.CommentByID(ctx, commentID)
		if err != nil {
			return storeError(c, err)
		}
		if comment.TaskID != taskID {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "not found"})
		}
		// Authorship is the only gate here; even the board owner is
		// refused.
		if d := domain.CanDeleteComment(p, comment); d != domain.Allow {
			return refuse(c, d)
		}
		if err := store.DeleteComment(ctx, comment.ID); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
