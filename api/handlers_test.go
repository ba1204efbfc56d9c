package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanmind-api/domain"
	"kanmind-api/storage"
)

// mockStore is an in-memory Store for handler tests.
type mockStore struct {
	users    map[int64]storage.User
	boards   map[int64]domain.Board
	tasks    map[int64]domain.Task
	comments map[int64]domain.Comment
	nextID   int64

	deletedBoards   []int64
	deletedTasks    []int64
	deletedComments []int64
	err             error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:    map[int64]storage.User{},
		boards:   map[int64]domain.Board{},
		tasks:    map[int64]domain.Task{},
		comments: map[int64]domain.Comment{},
		nextID:   100,
	}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockStore) CreateUser(_ context.Context, email, fullname, hash string) (storage.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return storage.User{}, storage.ErrEmailTaken
		}
	}
	u := storage.User{ID: m.id(), Email: email, Fullname: fullname, PasswordHash: hash}
	m.users[u.ID] = u
	return u, m.err
}

func (m *mockStore) UserByID(_ context.Context, id int64) (storage.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return storage.User{}, storage.NotFoundError{Entity: "user", ID: id}
}

func (m *mockStore) UserByEmail(_ context.Context, email string) (storage.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return storage.User{}, storage.NotFoundError{Entity: "user"}
}

func (m *mockStore) UsersByIDs(_ context.Context, ids []int64) (map[int64]storage.User, error) {
	out := map[int64]storage.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, m.err
}

func (m *mockStore) CreateBoard(_ context.Context, title string, ownerID int64, memberIDs []int64) (domain.Board, error) {
	b := domain.Board{ID: m.id(), Title: title, OwnerID: ownerID, Members: memberIDs}
	m.boards[b.ID] = b
	return b, m.err
}

func (m *mockStore) BoardByID(_ context.Context, id int64) (domain.Board, error) {
	if b, ok := m.boards[id]; ok {
		return b, nil
	}
	return domain.Board{}, storage.NotFoundError{Entity: "board", ID: id}
}

func (m *mockStore) ListBoards(_ context.Context) ([]domain.Board, error) {
	boards := make([]domain.Board, 0, len(m.boards))
	for _, b := range m.boards {
		boards = append(boards, b)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })
	return boards, m.err
}

func (m *mockStore) UpdateBoard(_ context.Context, id int64, title string, memberIDs []int64) error {
	b, ok := m.boards[id]
	if !ok {
		return storage.NotFoundError{Entity: "board", ID: id}
	}
	b.Title = title
	b.Members = memberIDs
	m.boards[id] = b
	return m.err
}

func (m *mockStore) DeleteBoard(_ context.Context, id int64) error {
	if _, ok := m.boards[id]; !ok {
		return storage.NotFoundError{Entity: "board", ID: id}
	}
	delete(m.boards, id)
	// Mirror the schema cascade.
	for tid, t := range m.tasks {
		if t.BoardID == id {
			delete(m.tasks, tid)
			for cid, cm := range m.comments {
				if cm.TaskID == tid {
					delete(m.comments, cid)
				}
			}
		}
	}
	m.deletedBoards = append(m.deletedBoards, id)
	return m.err
}

func (m *mockStore) CreateTask(_ context.Context, t domain.Task) (domain.Task, error) {
	t.ID = m.id()
	m.tasks[t.ID] = t
	return t, m.err
}

func (m *mockStore) TaskByID(_ context.Context, id int64) (domain.Task, error) {
	if t, ok := m.tasks[id]; ok {
		return t, nil
	}
	return domain.Task{}, storage.NotFoundError{Entity: "task", ID: id}
}

func (m *mockStore) UpdateTask(_ context.Context, t domain.Task) error {
	if _, ok := m.tasks[t.ID]; !ok {
		return storage.NotFoundError{Entity: "task", ID: t.ID}
	}
	m.tasks[t.ID] = t
	return m.err
}

func (m *mockStore) DeleteTask(_ context.Context, id int64) error {
	if _, ok := m.tasks[id]; !ok {
		return storage.NotFoundError{Entity: "task", ID: id}
	}
	delete(m.tasks, id)
	for cid, cm := range m.comments {
		if cm.TaskID == id {
			delete(m.comments, cid)
		}
	}
	m.deletedTasks = append(m.deletedTasks, id)
	return m.err
}

func (m *mockStore) tasksWhere(match func(domain.Task) bool) []domain.Task {
	tasks := []domain.Task{}
	for _, t := range m.tasks {
		if match(t) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

func (m *mockStore) TasksByBoard(_ context.Context, boardID int64) ([]domain.Task, error) {
	return m.tasksWhere(func(t domain.Task) bool { return t.BoardID == boardID }), m.err
}

func (m *mockStore) TasksByAssignee(_ context.Context, userID int64) ([]domain.Task, error) {
	return m.tasksWhere(func(t domain.Task) bool { return t.AssigneeID != nil && *t.AssigneeID == userID }), m.err
}

func (m *mockStore) TasksByReviewer(_ context.Context, userID int64) ([]domain.Task, error) {
	return m.tasksWhere(func(t domain.Task) bool { return t.ReviewerID != nil && *t.ReviewerID == userID }), m.err
}

func (m *mockStore) CommentCounts(_ context.Context, taskIDs []int64) (map[int64]int, error) {
	counts := map[int64]int{}
	for _, id := range taskIDs {
		counts[id] = 0
	}
	for _, cm := range m.comments {
		if _, ok := counts[cm.TaskID]; ok {
			counts[cm.TaskID]++
		}
	}
	return counts, m.err
}

func (m *mockStore) CreateComment(_ context.Context, taskID, authorID int64, content string) (domain.Comment, error) {
	cm := domain.Comment{ID: m.id(), TaskID: taskID, AuthorID: authorID, Content: content}
	m.comments[cm.ID] = cm
	return cm, m.err
}

func (m *mockStore) CommentByID(_ context.Context, id int64) (domain.Comment, error) {
	if cm, ok := m.comments[id]; ok {
		return cm, nil
	}
	return domain.Comment{}, storage.NotFoundError{Entity: "comment", ID: id}
}

func (m *mockStore) CommentsByTask(_ context.Context, taskID int64) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	for _, cm := range m.comments {
		if cm.TaskID == taskID {
			comments = append(comments, cm)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, m.err
}

func (m *mockStore) DeleteComment(_ context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return storage.NotFoundError{Entity: "comment", ID: id}
	}
	delete(m.comments, id)
	m.deletedComments = append(m.deletedComments, id)
	return m.err
}

func (m *mockStore) Ping(context.Context) error { return m.err }

// mockAuth resolves every request to a fixed principal.
type mockAuth struct {
	p      domain.Principal
	err    error
	claims Claims
}

func (m mockAuth) Principal(context.Context, string) (domain.Principal, error) {
	return m.p, m.err
}

func (m mockAuth) Claims(string) (Claims, error) {
	return m.claims, m.err
}

func testContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger
}

// seedBoard creates the canonical fixture: user 1 owns board 10 with user 2
// as its only member, user 3 is unrelated.
func seedBoard(m *mockStore) domain.Board {
	m.users[1] = storage.User{ID: 1, Email: "owner@mail.com", Fullname: "Owner"}
	m.users[2] = storage.User{ID: 2, Email: "member@mail.com", Fullname: "Member"}
	m.users[3] = storage.User{ID: 3, Email: "other@mail.com", Fullname: "Other"}
	b := domain.Board{ID: 10, Title: "Sprint", OwnerID: 1, Members: []int64{2}}
	m.boards[b.ID] = b
	return b
}

func TestHealthz(t *testing.T) {
	store := newMockStore()
	c, rec := testContext(http.MethodGet, "/healthz", "")

	if err := healthz(store)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
}
