package domain

// Principal is the authenticated identity a request acts as. It is derived
// per-request from a verified token and never persisted.
type Principal struct {
	ID        int64 `json:"id"`
	Superuser bool  `json:"-"`
}
