// AngelaMos | 2026
// dto.go

package catalog

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type CreateServiceRequest struct {
	Category    string   `json:"category"    validate:"required,max=64"`
	Title       string   `json:"title"       validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	BasePrice   float64  `json:"base_price"  validate:"gte=0"`
	OfferPrice  *float64 `json:"offer_price" validate:"omitempty,gte=0"`
	Images      []string `json:"images"      validate:"max=10,dive,url"`
}

type ServicePatch struct {
	Title       *string   `json:"title"       validate:"omitempty,min=3,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Category    *string   `json:"category"    validate:"omitempty,max=64"`
	BasePrice   *float64  `json:"base_price"  validate:"omitempty,gte=0"`
	OfferPrice  *float64  `json:"offer_price" validate:"omitempty,gte=0"`
	Images      *[]string `json:"images"      validate:"omitempty,max=10,dive,url"`
	IsActive    *bool     `json:"is_active"`
}

func (p ServicePatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.BasePrice != nil {
		cols["base_price"] = *p.BasePrice
	}
	if p.OfferPrice != nil {
		cols["offer_price"] = *p.OfferPrice
	}
	if p.Images != nil {
		cols["images"] = core.StringList(*p.Images)
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}

type CreateCategoryRequest struct {
	Slug        string `json:"slug"        validate:"required,min=2,max=64,lowercase"`
	Name        string `json:"name"        validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type CategoryPatch struct {
	Name        *string `json:"name"        validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

func (p CategoryPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}

type ServiceResponse struct {
	ID          string    `json:"id"`
	DetectiveID string    `json:"detective_id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	BasePrice   float64   `json:"base_price"`
	OfferPrice  *float64  `json:"offer_price,omitempty"`
	Images      []string  `json:"images"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToServiceResponse(s *Service) ServiceResponse {
	images := []string(s.Images)
	if images == nil {
		images = []string{}
	}
	return ServiceResponse{
		ID:          s.ID,
		DetectiveID: s.DetectiveID,
		Category:    s.Category,
		Title:       s.Title,
		Description: s.Description,
		BasePrice:   s.BasePrice,
		OfferPrice:  s.OfferPrice,
		Images:      images,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func ToServiceResponseList(services []Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for i := range services {
		out = append(out, ToServiceResponse(&services[i]))
	}
	return out
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func ToCategoryResponse(c *Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

func ToCategoryResponseList(cs []Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cs))
	for i := range cs {
		out = append(out, ToCategoryResponse(&cs[i]))
	}
	return out
}

type ListServicesParams struct {
	core.Pagination
	Search      string
	Category    string
	DetectiveID string
	MinPrice    *float64
	MaxPrice    *float64
	ActiveOnly  bool
}
