package domain

// Board groups tasks under an owner and a set of collaborating members.
// The owner is fixed at creation and is privileged regardless of whether
// the owner id also appears in Members.
type Board struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title"`
	OwnerID int64   `json:"owner_id"`
	Members []int64 `json:"-"`
}

// HasMember reports whether the given principal id is in the member set.
func (b Board) HasMember(id int64) bool {
	for _, m := range b.Members {
		if m == id {
			return true
		}
	}
	return false
}
