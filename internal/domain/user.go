package domain

import "time"

// User represents an editor account. Referenced by projects through owner_id
// and by collaboration grants; identified externally by username.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
