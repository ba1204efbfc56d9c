package domain

// Action is what a principal wants to do to an entity. Handlers translate
// HTTP verbs to actions before calling into policy, so decision functions
// never see transport-level concepts.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}
