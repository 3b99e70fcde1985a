// AngelaMos | 2026
// dto.go

package review

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type CreateReviewRequest struct {
	ServiceID string `json:"-"       validate:"required,uuid"`
	Rating    int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type Patch struct {
	Rating      *int    `json:"rating"       validate:"omitempty,min=1,max=5"`
	Comment     *string `json:"comment"      validate:"omitempty,max=2000"`
	IsPublished *bool   `json:"is_published"`
}

func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Rating != nil {
		cols["rating"] = *p.Rating
	}
	if p.Comment != nil {
		cols["comment"] = *p.Comment
	}
	if p.IsPublished != nil {
		cols["is_published"] = *p.IsPublished
	}
	return cols
}

type ListParams struct {
	core.Pagination
	ServiceID     string
	UserID        string
	PublishedOnly bool
}

type Response struct {
	ID          string    `json:"id"`
	ServiceID   string    `json:"service_id"`
	UserID      string    `json:"user_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToResponse(r *Review) Response {
	return Response{
		ID:          r.ID,
		ServiceID:   r.ServiceID,
		UserID:      r.UserID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ToResponseList(reviews []Review) []Response {
	out := make([]Response, 0, len(reviews))
	for i := range reviews {
		out = append(out, ToResponse(&reviews[i]))
	}
	return out
}
