package models

// Person is a read-only projection of the platform user profile.
type Person struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"`
}

func (p *Person) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// PlatformRole comes from the bearer token.
type PlatformRole string

const (
	PlatformUser  PlatformRole = "user"
	PlatformAdmin PlatformRole = "admin"
)

// Actor is the authenticated caller of a command.
type Actor struct {
	UserID string
	Role   PlatformRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == PlatformAdmin
}
