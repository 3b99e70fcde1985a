// AngelaMos | 2026
// dto.go

package application

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
)

type SubmitRequest struct {
	FullName        string   `json:"full_name"        validate:"required,min=2,max=100"`
	Email           string   `json:"email"            validate:"required,email,max=255"`
	Phone           string   `json:"phone"            validate:"omitempty,e164"`
	BusinessName    string   `json:"business_name"    validate:"required,min=2,max=200"`
	BusinessType    string   `json:"business_type"    validate:"required,oneof=individual agency"`
	Country         string   `json:"country"          validate:"required,len=2,alpha"`
	Location        string   `json:"location"         validate:"max=200"`
	Bio             string   `json:"bio"              validate:"max=5000"`
	Languages       []string `json:"languages"        validate:"max=20,dive,min=2,max=50"`
	Categories      []string `json:"categories"       validate:"required,min=1,max=10,unique,dive,required,max=64"`
	StartingPrice   *float64 `json:"starting_price"   validate:"omitempty,gte=0"`
	LicenseNumber   string   `json:"license_number"   validate:"max=100"`
	LicenseCountry  string   `json:"license_country"  validate:"omitempty,len=2,alpha"`
	YearsExperience int      `json:"years_experience" validate:"gte=0,lte=80"`
	Password        string   `json:"password"         validate:"omitempty,min=8,max=128"`
}

type ReviewRequest struct {
	Status      lifecycle.Status `json:"status"       validate:"required"`
	ReviewNotes string           `json:"review_notes" validate:"max=2000"`
}

type ListParams struct {
	core.Pagination
	Status lifecycle.Status
	Email  string
}

type Response struct {
	ID              string           `json:"id"`
	FullName        string           `json:"full_name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	BusinessName    string           `json:"business_name"`
	BusinessType    BusinessType     `json:"business_type"`
	Country         string           `json:"country"`
	Location        string           `json:"location"`
	Bio             string           `json:"bio"`
	Languages       []string         `json:"languages"`
	Categories      []string         `json:"categories"`
	StartingPrice   *float64         `json:"starting_price,omitempty"`
	LicenseNumber   string           `json:"license_number"`
	LicenseCountry  string           `json:"license_country"`
	YearsExperience int              `json:"years_experience"`
	Status          lifecycle.Status `json:"status"`
	ReviewNotes     string           `json:"review_notes,omitempty"`
	ReviewedBy      *string          `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	UserID          *string          `json:"user_id,omitempty"`
	DetectiveID     *string          `json:"detective_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SubmittedResponse is what the public applicant gets back.
type SubmittedResponse struct {
	ID        string           `json:"id"`
	Status    lifecycle.Status `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

func ToResponse(a *Application) Response {
	return Response{
		ID:              a.ID,
		FullName:        a.FullName,
		Email:           a.Email,
		Phone:           a.Phone,
		BusinessName:    a.BusinessName,
		BusinessType:    a.BusinessType,
		Country:         a.Country,
		Location:        a.Location,
		Bio:             a.Bio,
		Languages:       nonNil(a.Languages),
		Categories:      nonNil(a.Categories),
		StartingPrice:   a.StartingPrice,
		LicenseNumber:   a.LicenseNumber,
		LicenseCountry:  a.LicenseCountry,
		YearsExperience: a.YearsExperience,
		Status:          a.Status,
		ReviewNotes:     a.ReviewNotes,
		ReviewedBy:      a.ReviewedBy,
		ReviewedAt:      a.ReviewedAt,
		UserID:          a.UserID,
		DetectiveID:     a.DetectiveID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func ToResponseList(apps []Application) []Response {
	out := make([]Response, 0, len(apps))
	for i := range apps {
		out = append(out, ToResponse(&apps[i]))
	}
	return out
}

func nonNil(l core.StringList) []string {
	if l == nil {
		return []string{}
	}
	return l
}
