package domain

import "testing"

func TestProjectBoardCounts(t *testing.T) {
	board := Board{ID: 1, Members: []int64{1, 2, 3}}
	tasks := []Task{
		{ID: 1, BoardID: 1, Status: StatusToDo, Priority: PriorityHigh},
		{ID: 2, BoardID: 1, Status: StatusToDo, Priority: PriorityLow},
		{ID: 3, BoardID: 1, Status: StatusDone, Priority: PriorityHigh},
		{ID: 4, BoardID: 2, Status: StatusToDo, Priority: PriorityHigh}, // other board
	}

	stats := ProjectBoard(board, tasks)
	if stats.MemberCount != 3 {
		t.Fatalf("member count = %d, want 3", stats.MemberCount)
	}
	if stats.TicketCount != 3 {
		t.Fatalf("ticket count = %d, want 3", stats.TicketCount)
	}
	if stats.TasksToDoCount != 2 {
		t.Fatalf("to-do count = %d, want 2", stats.TasksToDoCount)
	}
	if stats.TasksHighPrioCount != 2 {
		t.Fatalf("high prio count = %d, want 2", stats.TasksHighPrioCount)
	}
}

func TestProjectBoardHighPrioCountsByPriorityNotStatus(t *testing.T) {
	board := Board{ID: 1}
	tasks := []Task{
		// High priority but done: must still count.
		{ID: 1, BoardID: 1, Status: StatusDone, Priority: PriorityHigh},
		// In review, low priority: must not count.
		{ID: 2, BoardID: 1, Status: StatusReview, Priority: PriorityLow},
	}

	stats := ProjectBoard(board, tasks)
	if stats.TasksHighPrioCount != 1 {
		t.Fatalf("high prio count = %d, want 1 (priority field only)", stats.TasksHighPrioCount)
	}
}

func TestProjectBoardEmpty(t *testing.T) {
	stats := ProjectBoard(Board{ID: 5}, nil)
	if stats != (BoardStats{}) {
		t.Fatalf("expected zero stats for empty board, got %+v", stats)
	}
}

func TestCountComments(t *testing.T) {
	comments := []Comment{
		{ID: 1, TaskID: 7},
		{ID: 2, TaskID: 7},
		{ID: 3, TaskID: 8},
	}
	if got := CountComments(7, comments); got != 2 {
		t.Fatalf("comment count = %d, want 2", got)
	}
	if got := CountComments(9, comments); got != 0 {
		t.Fatalf("comment count = %d, want 0", got)
	}
}
