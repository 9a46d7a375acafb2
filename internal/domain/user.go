package domain

import "time"

// User represents a TaskHive account.
// Password holds the stored credential, plaintext unless bcrypt is configured.
type User struct {
	ID        string
	Username  string
	Password  string
	CreatedAt time.Time
}
