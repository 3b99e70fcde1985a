// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
)

// Patch is the typed form of a sanitized user update. Nil fields are left
// untouched.
type Patch struct {
	Name      *string `json:"name"       validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=2048"`
}

func (p Patch) Columns() map[string]any {
	cols := make(map[string]any, 2)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.AvatarURL != nil {
		cols["avatar_url"] = *p.AvatarURL
	}
	return cols
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user detective admin"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListUsersParams struct {
	core.Pagination
	Search string      `json:"search"`
	Role   access.Role `json:"role"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
