package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanmind-api/domain"
	"kanmind-api/storage"
)

// Register wires up all API routes on the provided Echo instance. The
// issuer is nil when an external identity provider owns token issuance;
// login and registration refuse in that mode.
func Register(e *echo.Echo, store Store, auth Authenticator, issuer TokenIssuer, revoker Revoker, logger *log.Logger) {
	e.POST("/api/registration", registration(store, issuer))
	e.POST("/api/login", login(store, issuer))
	e.GET("/api/email-check", emailCheck(store, auth))
	e.POST("/api/logout", logout(auth, revoker))

	e.GET("/api/boards", listBoards(store, auth, logger))
	e.POST("/api/boards", createBoard(store, auth))
	e.GET("/api/boards/:board_id", boardDetail(store, auth))
	e.PATCH("/api/boards/:board_id", updateBoard(store, auth))
	e.DELETE("/api/boards/:board_id", deleteBoard(store, auth))

	e.POST("/api/tasks", createTask(store, auth))
	e.GET("/api/tasks/assigned-to-me", assignedTasks(store, auth))
	e.GET("/api/tasks/reviewing", reviewingTasks(store, auth))
	e.PATCH("/api/tasks/:task_id", updateTask(store, auth))
	e.DELETE("/api/tasks/:task_id", deleteTask(store, auth))

	e.GET("/api/tasks/:task_id/comments", listComments(store, auth))
	e.POST("/api/tasks/:task_id/comments", createComment(store, auth))
	e.DELETE("/api/tasks/:task_id/comments/:comment_id", deleteComment(store, auth))

	e.GET("/healthz", healthz(store))
}

func healthz(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	}
}

// principal resolves the requester or writes the 401 itself. The bool
// reports whether the handler may continue.
func principal(c echo.Context, auth Authenticator) (domain.Principal, bool) {
	p, err := auth.Principal(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"detail": err.Error()})
		return domain.Principal{}, false
	}
	return p, true
}

// refuse maps a non-Allow decision to a response. The body is generic on
// purpose: a Deny must not reveal anything about the entity.
func refuse(c echo.Context, d domain.Decision) error {
	if d == domain.NotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "not found"})
	}
	return c.JSON(http.StatusForbidden, echo.Map{"detail": "forbidden"})
}

// storeError maps persistence failures: missing rows become 404, anything
// else is logged and becomes an opaque 500.
func storeError(c echo.Context, err error) error {
	var nf NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "not found"})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "internal error"})
}

func idParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}

func userResponseFrom(u storage.User) *userResponse {
	return &userResponse{ID: u.ID, Email: u.Email, Fullname: u.Fullname}
}

type taskResponse struct {
	ID            int64           `json:"id"`
	Board         int64           `json:"board"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Status        domain.Status   `json:"status"`
	Priority      domain.Priority `json:"priority"`
	Assignee      *userResponse   `json:"assignee"`
	Reviewer      *userResponse   `json:"reviewer"`
	DueDate       *string         `json:"due_date"`
	CommentsCount int             `json:"comments_count"`
}

// taskResponses shapes tasks with nested assignee/reviewer info and live
// comment counts.
func taskResponses(c echo.Context, store Store, tasks []domain.Task) ([]taskResponse, error) {
	ctx := c.Request().Context()

	taskIDs := make([]int64, 0, len(tasks))
	userIDs := []int64{}
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
		if t.AssigneeID != nil {
			userIDs = append(userIDs, *t.AssigneeID)
		}
		if t.ReviewerID != nil {
			userIDs = append(userIDs, *t.ReviewerID)
		}
	}

	counts, err := store.CommentCounts(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	users, err := store.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp := taskResponse{
			ID:            t.ID,
			Board:         t.BoardID,
			Title:         t.Title,
			Description:   t.Description,
			Status:        t.Status,
			Priority:      t.Priority,
			DueDate:       t.DueDate,
			CommentsCount: counts[t.ID],
		}
		if t.AssigneeID != nil {
			if u, ok := users[*t.AssigneeID]; ok {
				resp.Assignee = userResponseFrom(u)
			}
		}
		if t.ReviewerID != nil {
			if u, ok := users[*t.ReviewerID]; ok {
				resp.Reviewer = userResponseFrom(u)
			}
		}
		out = append(out, resp)
	}
	return out, nil
}
