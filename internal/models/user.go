package models

// User is the fixed reviewer identity supplied by configuration.
type User struct {
	Name       string
	Department string
}
