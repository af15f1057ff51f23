package users

import "time"

type User struct {
	ID           string
	Login        string
	PasswordHash []byte
	CreatedAt    time.Time
}
