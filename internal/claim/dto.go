// AngelaMos | 2026
// dto.go

package claim

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
)

type SubmitRequest struct {
	DetectiveID   string   `json:"detective_id"   validate:"required,uuid"`
	ClaimantName  string   `json:"claimant_name"  validate:"required,min=2,max=100"`
	ClaimantEmail string   `json:"claimant_email" validate:"required,email,max=255"`
	ClaimantPhone string   `json:"claimant_phone" validate:"omitempty,e164"`
	Documents     []string `json:"documents"      validate:"max=10,dive,required,max=300"`
	Details       string   `json:"details"        validate:"max=5000"`
}

type ReviewRequest struct {
	Status      lifecycle.Status `json:"status"       validate:"required"`
	ReviewNotes string           `json:"review_notes" validate:"max=2000"`
}

type DocumentUploadRequest struct {
	FileName    string `json:"file_name"    validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
}

type ListParams struct {
	core.Pagination
	Status      lifecycle.Status
	DetectiveID string
}

// ApprovalResult is the outcome of a review. ClaimantUserID and WasNewUser
// are only set when the claim was approved.
type ApprovalResult struct {
	Claim          *Claim
	ClaimantUserID string
	WasNewUser     bool
}

type Response struct {
	ID             string           `json:"id"`
	DetectiveID    string           `json:"detective_id"`
	ClaimantName   string           `json:"claimant_name"`
	ClaimantEmail  string           `json:"claimant_email"`
	ClaimantPhone  string           `json:"claimant_phone"`
	Documents      []string         `json:"documents"`
	Details        string           `json:"details"`
	Status         lifecycle.Status `json:"status"`
	ReviewNotes    string           `json:"review_notes,omitempty"`
	ReviewedBy     *string          `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	ClaimantUserID *string          `json:"claimant_user_id,omitempty"`
	LastError      *string          `json:"last_error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type ReviewResponse struct {
	Claim      Response `json:"claim"`
	WasNewUser bool     `json:"was_new_user"`
}

type SubmittedResponse struct {
	ID        string           `json:"id"`
	Status    lifecycle.Status `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

type DocumentLink struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func ToResponse(c *Claim) Response {
	docs := []string(c.Documents)
	if docs == nil {
		docs = []string{}
	}
	return Response{
		ID:             c.ID,
		DetectiveID:    c.DetectiveID,
		ClaimantName:   c.ClaimantName,
		ClaimantEmail:  c.ClaimantEmail,
		ClaimantPhone:  c.ClaimantPhone,
		Documents:      docs,
		Details:        c.Details,
		Status:         c.Status,
		ReviewNotes:    c.ReviewNotes,
		ReviewedBy:     c.ReviewedBy,
		ReviewedAt:     c.ReviewedAt,
		ClaimantUserID: c.ClaimantUserID,
		LastError:      c.LastError,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToResponseList(claims []Claim) []Response {
	out := make([]Response, 0, len(claims))
	for i := range claims {
		out = append(out, ToResponse(&claims[i]))
	}
	return out
}
