package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanmind-api/domain"
)

type boardListItem struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	OwnerID int64  `json:"owner_id"`
	domain.BoardStats
}

type createBoardRequest struct {
	Title   string  `json:"title"`
	Members []int64 `json:"members"`
}

type updateBoardRequest struct {
	Title   *string  `json:"title"`
	Members *[]int64 `json:"members"`
}

type boardDetailResponse struct {
	ID      int64          `json:"id"`
	Title   string         `json:"title"`
	OwnerID int64          `json:"owner_id"`
	Members []userResponse `json:"members"`
	Tasks   []taskResponse `json:"tasks"`
}

type boardUpdateResponse struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	OwnerData   *userResponse  `json:"owner_data"`
	MembersData []userResponse `json:"members_data"`
}

// boardStats recomputes the derived counters for one board from its
// current tasks. Always live; there is no cached counter to invalidate.
func boardStats(c echo.Context, store Store, b domain.Board) (domain.BoardStats, error) {
	tasks, err := store.TasksByBoard(c.Request().Context(), b.ID)
	if err != nil {
		return domain.BoardStats{}, err
	}
	return domain.ProjectBoard(b, tasks), nil
}

func listBoards(store Store, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newBoardListMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		p, ok := principal(c, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if !ok {
			metrics.SetErrorStage("auth")
			return nil
		}

		fetchStart := time.Now()
		boards, fetchErr := store.ListBoards(c.Request().Context())
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			return storeError(c, fetchErr)
		}

		visible := domain.VisibleBoards(p, boards)
		metrics.SetBoardsVisible(len(visible))

		statsStart := time.Now()
		items := make([]boardListItem, 0, len(visible))
		for _, b := range visible {
			stats, statsErr := boardStats(c, store, b)
			if statsErr != nil {
				metrics.SetErrorStage("stats")
				return storeError(c, statsErr)
			}
			items = append(items, boardListItem{ID: b.ID, Title: b.Title, OwnerID: b.OwnerID, BoardStats: stats})
		}
		metrics.ObserveStats(time.Since(statsStart))

		return c.JSON(http.StatusOK, items)
	}
}

func createBoard(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		var req createBoardRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
		}
		if req.Title == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "title required"})
		}

		ctx := c.Request().Context()
		users, err := store.UsersByIDs(ctx, req.Members)
		if err != nil {
			return storeError(c, err)
		}
		for _, id := range req.Members {
			if _, exists := users[id]; !exists {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown member id"})
			}
		}

		board, err := store.CreateBoard(ctx, req.Title, p.ID, req.Members)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, boardListItem{
			ID:         board.ID,
			Title:      board.Title,
			OwnerID:    board.OwnerID,
			BoardStats: domain.BoardStats{MemberCount: len(board.Members)},
		})
	}
}

// loadAuthorizedBoard fetches a board and runs the manage check for the
// given action. On refusal the response has already been written and the
// returned bool is false.
func loadAuthorizedBoard(c echo.Context, store Store, p domain.Principal, action domain.Action) (domain.Board, bool) {
	id, err := idParam(c, "board_id")
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid board id"})
		return domain.Board{}, false
	}
	board, err := store.BoardByID(c.Request().Context(), id)
	if err != nil {
		_ = storeError(c, err)
		return domain.Board{}, false
	}
	if d := domain.CanManageBoard(p, board, action); d != domain.Allow {
		_ = refuse(c, d)
		return domain.Board{}, false
	}
	return board, true
}

func boardDetail(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		board, ok := loadAuthorizedBoard(c, store, p, domain.ActionRead)
		if !ok {
			return nil
		}
		ctx := c.Request().Context()

		members, err := store.UsersByIDs(ctx, board.Members)
		if err != nil {
			return storeError(c, err)
		}
		memberData := make([]userResponse, 0, len(board.Members))
		for _, id := range board.Members {
			if u, exists := members[id]; exists {
				memberData = append(memberData, *userResponseFrom(u))
			}
		}

		tasks, err := store.TasksByBoard(ctx, board.ID)
		if err != nil {
			return storeError(c, err)
		}
		taskData, err := taskResponses(c, store, tasks)
		if err != nil {
			return storeError(c, err)
		}

		return c.JSON(http.StatusOK, boardDetailResponse{
			ID:      board.ID,
			Title:   board.Title,
			OwnerID: board.OwnerID,
			Members: memberData,
			Tasks:   taskData,
		})
	}
}

func updateBoard(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		board, ok := loadAuthorizedBoard(c, store, p, domain.ActionUpdate)
		if !ok {
			return nil
		}
		var req updateBoardRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
		}

		title := board.Title
		if req.Title != nil {
			if *req.Title == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": "title required"})
			}
			title = *req.Title
		}
		members := board.Members
		if req.Members != nil {
			members = *req.Members
		}

		ctx := c.Request().Context()
		users, err := store.UsersByIDs(ctx, members)
		if err != nil {
			return storeError(c, err)
		}
		for _, id := range members {
			if _, exists := users[id]; !exists {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown member id"})
			}
		}

		if err := store.UpdateBoard(ctx, board.ID, title, members); err != nil {
			return storeError(c, err)
		}

		owner, err := store.UserByID(ctx, board.OwnerID)
		if err != nil {
			return storeError(c, err)
		}
		membersData := make([]userResponse, 0, len(members))
		seen := map[int64]bool{}
		for _, id := range members {
			if seen[id] {
				continue
			}
			seen[id] = true
			if u, exists := users[id]; exists {
				membersData = append(membersData, *userResponseFrom(u))
			}
		}

		return c.JSON(http.StatusOK, boardUpdateResponse{
			ID:          board.ID,
			Title:       title,
			OwnerData:   userResponseFrom(owner),
			MembersData: membersData,
		})
	}
}

func deleteBoard(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := principal(c, auth)
		if !ok {
			return nil
		}
		board, ok := loadAuthorizedBoard(c, store, p, domain.ActionDelete)
		if !ok {
			return nil
		}
		// Tasks and comments cascade away with the board in one atomic
		// store operation.
		if err := store.DeleteBoard(c.Request().Context(), board.ID); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
