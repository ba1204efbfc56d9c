package domain

// BoardStats carries the derived counters attached to a board in list and
// detail responses. They are recomputed from current rows on every read;
// nothing here is cached or incrementally maintained.
type BoardStats struct {
	MemberCount        int `json:"member_count"`
	TicketCount        int `json:"ticket_count"`
	TasksToDoCount     int `json:"tasks_to_do_count"`
	TasksHighPrioCount int `json:"tasks_high_prio_count"`
}

// ProjectBoard computes the live counters for a board from its current
// tasks. TasksHighPrioCount counts by priority, not status; the name is
// historical and the distinction matters because "high" is never a valid
// status value.
func ProjectBoard(b Board, tasks []Task) BoardStats {
	stats := BoardStats{MemberCount: len(b.Members)}
	for _, t := range tasks {
		if t.BoardID != b.ID {
			continue
		}
		stats.TicketCount++
		if t.Status == StatusToDo {
			stats.TasksToDoCount++
		}
		if t.Priority == PriorityHigh {
			stats.TasksHighPrioCount++
		}
	}
	return stats
}

// CountComments computes the live comment counter for a task.
func CountComments(taskID int64, comments []Comment) int {
	n := 0
	for _, c := range comments {
		if c.TaskID == taskID {
			n++
		}
	}
	return n
}
