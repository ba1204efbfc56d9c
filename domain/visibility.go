package domain

// BoardVisible reports whether a single board appears in the principal's
// board list: superusers see everything, everyone else sees boards they
// own or belong to. A principal who is both owner and member matches once,
// the predicate is a plain boolean.
func BoardVisible(p Principal, b Board) bool {
	if p.Superuser {
		return true
	}
	return p.ID == b.OwnerID || b.HasMember(p.ID)
}

// VisibleBoards filters a board collection down to what the principal may
// list. Input order is preserved; this function never re-sorts.
func VisibleBoards(p Principal, boards []Board) []Board {
	visible := make([]Board, 0, len(boards))
	for _, b := range boards {
		if BoardVisible(p, b) {
			visible = append(visible, b)
		}
	}
	return visible
}
