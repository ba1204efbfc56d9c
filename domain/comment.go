package domain

import "time"

// Comment is a remark on a task. AuthorID is set once at creation to the
// requesting principal and is the exclusive gate for deletion.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"-"`
	AuthorID  int64     `json:"-"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
