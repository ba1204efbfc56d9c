package domain

// Decision is the outcome of an authorization check. NotFound is returned
// only where the rules explicitly distinguish a missing entity from a
// forbidden one; everywhere else an unresolvable reference is a Deny.
type Decision int

const (
	Deny Decision = iota
	Allow
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NotFound:
		return "not-found"
	}
	return "deny"
}

// withSuperuser applies the uniform superuser escape hatch before any rule
// runs. Every decision function goes through it so the bypass has a single
// precedence point.
func withSuperuser(p Principal, rule func() Decision) Decision {
	if p.Superuser {
		return Allow
	}
	return rule()
}

// CanManageBoard decides board-level access. Deletion is reserved for the
// owner; every other action is open to the owner or any member.
func CanManageBoard(p Principal, b Board, action Action) Decision {
	return withSuperuser(p, func() Decision {
		if action == ActionDelete {
			if p.ID == b.OwnerID {
				return Allow
			}
			return Deny
		}
		if p.ID == b.OwnerID || b.HasMember(p.ID) {
			return Allow
		}
		return Deny
	})
}

// CanCreateTask decides task creation on a target board. A nil board means
// the referenced board id did not resolve; that is the one creation case
// surfaced as NotFound rather than Deny. A request without a board id at
// all never reaches this function, payload validation rejects it first.
func CanCreateTask(p Principal, board *Board) Decision {
	return withSuperuser(p, func() Decision {
		if board == nil {
			return NotFound
		}
		if board.HasMember(p.ID) {
			return Allow
		}
		return Deny
	})
}

// CanModifyTask decides task updates and deletions uniformly. Membership
// of the task's board is the only gate: tasks have no individual owner,
// and being assignee or reviewer grants nothing extra.
func CanModifyTask(p Principal, board Board) Decision {
	return withSuperuser(p, func() Decision {
		if board.HasMember(p.ID) {
			return Allow
		}
		return Deny
	})
}

// CanCreateComment decides commenting on a task. A nil board means the
// referenced task did not resolve, which is reported as NotFound.
func CanCreateComment(p Principal, board *Board) Decision {
	return withSuperuser(p, func() Decision {
		if board == nil {
			return NotFound
		}
		if board.HasMember(p.ID) {
			return Allow
		}
		return Deny
	})
}

// CanDeleteComment restricts comment deletion to the author. Board
// membership and even board ownership are irrelevant here.
func CanDeleteComment(p Principal, c Comment) Decision {
	return withSuperuser(p, func() Decision {
		if p.ID == c.AuthorID {
			return Allow
		}
		return Deny
	})
}
