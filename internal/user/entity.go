// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/access"
)

type User struct {
	ID           string      `db:"id"`
	Email        string      `db:"email"`
	PasswordHash string      `db:"password_hash"`
	Name         string      `db:"name"`
	Role         access.Role `db:"role"`
	AvatarURL    *string     `db:"avatar_url"`
	TokenVersion int         `db:"token_version"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	DeletedAt    *time.Time  `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == access.RoleAdmin
}

func (u *User) Principal() *access.Principal {
	return &access.Principal{ID: u.ID, Role: u.Role}
}

const userColumns = `id, email, password_hash, name, role, avatar_url,
	token_version, created_at, updated_at, deleted_at`
