package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"kanmind-api/domain"
)

type createTaskRequest struct {
	Board       *int64  `json:"board"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	AssigneeID  *int64  `json:"assignee_id"`
	ReviewerID  *int64  `json:"reviewer_id"`
	DueDate     *string `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssigneeID  *int64  `json:"assignee_id"`
	ReviewerID  *int64  `json:"reviewer_id"`
	DueDate     *string `json:"due_date"`
}

func validDueDate(raw *string) bool {
	if raw == nil {
		return true
	}
	_, err := time.Parse("2006-01-02", *raw)
	return err == nil
}

// checkUsersExist verifies referenced user ids. Nil ids are fine, the
// relations are optional.
func checkUsersExist(c echo.Context, store Store, ids ...*int64) (bool, error) {
	lookup := []int64{}
	for _, id := range ids {
		if id != nil {
			lookup = append(lookup, *id)
		}
	}
	if len(lookup) == 0 {
		return true, nil
	}
	users, err := store.UsersByIDs(c.Request().Context(), lookup)
	if err != nil {
		return false, err
	}
	for _, id := range lookup {
		if _, ok := users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func createTask(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
		}

		// A missing board id is a malformed request, not an authorization
		// question; it never reaches the policy check.
		if req.Board == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "board required"})
		}
		if req.Title == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "title required"})
		}
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
		}
		priority, err := domain.ParsePriority(req.Priority)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
		}
		if !validDueDate(req.DueDate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid due date"})
		}

		ctx := c.Request().Context()
		var target *domain.Board
		board, err := store.BoardByID(ctx, *req.Board)
		if err != nil {
			var nf NotFoundError
			if !errors.As(err, &nf) {
				return storeError(c, err)
			}
			// Leave target nil: the policy reports the unresolved board
			// as NotFound.
		} else {
			target = &board
		}
		if d := domain.CanCreateTask(p, target); d != domain.Allow {
			return refuse(c, d)
		}

		if ok, err := checkUsersExist(c, store, req.AssigneeID, req.ReviewerID); err != nil {
			return storeError(c, err)
		} else if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown assignee or reviewer id"})
		}

		task, err := store.CreateTask(ctx, domain.Task{
			BoardID:     *req.Board,
			Title:       req.Title,
			Description: req.Description,
			Status:      status,
			Priority:    priority,
			AssigneeID:  req.AssigneeID,
			ReviewerID:  req.ReviewerID,
			DueDate:     req.DueDate,
		})
		if err != nil {
			return storeError(c, err)
		}

		resp, err := taskResponses(c, store, []domain.Task{task})
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, resp[0])
	}
}

// loadAuthorizedTask fetches a task, resolves its board, and runs the
// membership check that gates every task mutation.
func loadAuthorizedTask(c echo.Context, store Store, p domain.Principal) (domain.Task, bool) {
	id, err := idParam(c, "task_id")
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid task id"})
		return domain.Task{}, false
	}
	ctx := c.Request().Context()
	task, err := store.TaskByID(ctx, id)
	if err != nil {
		_ = storeError(c, err)
		return domain.Task{}, false
	}
	board, err := store.BoardByID(ctx, task.BoardID)
	if err != nil {
		_ = storeError(c, err)
		return domain.Task{}, false
	}
	if d := domain.CanModifyTask(p, board); d != domain.Allow {
		_ = refuse(c, d)
		return domain.Task{}, false
	}
	return task, true
}

func updateTask(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		task, ok := loadAuthorizedTask(c, store, p)
		if !ok {
			return nil
		}
		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
		}

		if req.Title != nil {
			if *req.Title == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": "title required"})
			}
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Status != nil {
			status, err := domain.ParseStatus(*req.Status)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
			}
			task.Status = status
		}
		if req.Priority != nil {
			priority, err := domain.ParsePriority(*req.Priority)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
			}
			task.Priority = priority
		}
		if req.AssigneeID != nil {
			task.AssigneeID = req.AssigneeID
		}
		if req.ReviewerID != nil {
			task.ReviewerID = req.ReviewerID
		}
		if req.DueDate != nil {
			if !validDueDate(req.DueDate) {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid due date"})
			}
			task.DueDate = req.DueDate
		}

		if ok, err := checkUsersExist(c, store, req.AssigneeID, req.ReviewerID); err != nil {
			return storeError(c, err)
		} else if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown assignee or reviewer id"})
		}

		if err := store.UpdateTask(c.Request().Context(), task); err != nil {
			return storeError(c, err)
		}
		resp, err := taskResponses(c, store, []domain.Task{task})
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, resp[0])
	}
}

func deleteTask(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		task, ok := loadAuthorizedTask(c, store, p)
		if !ok {
			return nil
		}
		if err := store.DeleteTask(c.Request().Context(), task.ID); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// relationTasks serves the assigned-to-me and reviewing lists. These are
// exact-match filters on one relation field; no membership check is
// layered on top because holding the relation already implies the
// principal was authorized when it was granted.
func relationTasks(store Store, auth Authenticator, fetch func(echo.Context, int64) ([]domain.Task, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		tasks, err := fetch(c, p.ID)
		if err != nil {
			return storeError(c, err)
		}
		resp, err := taskResponses(c, store, tasks)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func assignedTasks(store Store, auth Authenticator) echo.HandlerFunc {
	return relationTasks(store, auth, func(c echo.Context, userID int64) ([]domain.Task, error) {
		return store.TasksByAssignee(c.Request().Context(), userID)
	})
}

func reviewingTasks(store Store, auth Authenticator) echo.HandlerFunc {
	return relationTasks(store, auth, func(c echo.Context, userID int64) ([]domain.Task, error) {
		return store.TasksByReviewer(c.Request().Context(), userID)
	})
}
