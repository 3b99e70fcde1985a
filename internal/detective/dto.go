// AngelaMos | 2026
// dto.go

package detective

import (
	"strings"
	"time"

	"github.com/carterperez-dev/finddetectives/internal/access"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
)

type CreateDetectiveRequest struct {
	BusinessName string   `json:"business_name" validate:"required,min=2,max=200"`
	Bio          string   `json:"bio"           validate:"max=5000"`
	Location     string   `json:"location"      validate:"max=200"`
	Country      string   `json:"country"       validate:"required,len=2,alpha"`
	Phone        string   `json:"phone"         validate:"omitempty,e164"`
	WhatsApp     string   `json:"whatsapp"      validate:"omitempty,e164"`
	Languages    []string `json:"languages"     validate:"max=20,dive,min=2,max=40"`
}

// CreateUnclaimedRequest is the admin form for seeding a listing that its
// real owner can claim later.
type CreateUnclaimedRequest struct {
	CreateDetectiveRequest
	IsVerified bool `json:"is_verified"`
}

// Patch is the typed form of a sanitized detective update.
type Patch struct {
	BusinessName     *string        `json:"business_name"     validate:"omitempty,min=2,max=200"`
	Bio              *string        `json:"bio"               validate:"omitempty,max=5000"`
	Location         *string        `json:"location"          validate:"omitempty,max=200"`
	Phone            *string        `json:"phone"             validate:"omitempty,e164"`
	WhatsApp         *string        `json:"whatsapp"          validate:"omitempty,e164"`
	Languages        *[]string      `json:"languages"         validate:"omitempty,max=20,dive,min=2,max=40"`
	Recognitions     *[]Recognition `json:"recognitions"      validate:"omitempty,max=30,dive"`
	Status           *Status        `json:"status"            validate:"omitempty,oneof=pending active suspended inactive"`
	SubscriptionPlan *string        `json:"subscription_plan" validate:"omitempty,oneof=free pro agency"`
	IsVerified       *bool          `json:"is_verified"`
	Country          *string        `json:"country"           validate:"omitempty,len=2,alpha"`
}

// Columns maps the set fields to detective columns. Unset fields are absent,
// so the UPDATE only touches what the caller sent.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.BusinessName != nil {
		cols["business_name"] = *p.BusinessName
	}
	if p.Bio != nil {
		cols["bio"] = *p.Bio
	}
	if p.Location != nil {
		cols["location"] = *p.Location
	}
	if p.Phone != nil {
		cols["phone"] = *p.Phone
	}
	if p.WhatsApp != nil {
		cols["whatsapp"] = *p.WhatsApp
	}
	if p.Languages != nil {
		cols["languages"] = core.StringList(*p.Languages)
	}
	if p.Recognitions != nil {
		cols["recognitions"] = Recognitions(*p.Recognitions)
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.SubscriptionPlan != nil {
		cols["subscription_plan"] = *p.SubscriptionPlan
	}
	if p.IsVerified != nil {
		cols["is_verified"] = *p.IsVerified
	}
	if p.Country != nil {
		cols["country"] = strings.ToUpper(*p.Country)
	}
	return cols
}

type DetectiveResponse struct {
	ID               string        `json:"id"`
	UserID           *string       `json:"user_id,omitempty"`
	BusinessName     string        `json:"business_name"`
	Bio              string        `json:"bio"`
	Location         string        `json:"location"`
	Country          string        `json:"country"`
	Phone            string        `json:"phone,omitempty"`
	WhatsApp         string        `json:"whatsapp,omitempty"`
	Languages        []string      `json:"languages"`
	Recognitions     []Recognition `json:"recognitions,omitempty"`
	SubscriptionPlan string        `json:"subscription_plan"`
	Status           string        `json:"status"`
	IsVerified       bool          `json:"is_verified"`
	IsClaimed        bool          `json:"is_claimed"`
	IsClaimable      bool          `json:"is_claimable"`
	EarningsTotal    *float64      `json:"earnings_total,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ToResponse renders d for viewer. The owner and admins see every stored
// value; everyone else gets the plan's public view, which hides contact
// details and recognitions on plans that do not include them.
func ToResponse(d *Detective, viewer *access.Principal) DetectiveResponse {
	resp := DetectiveResponse{
		ID:               d.ID,
		BusinessName:     d.BusinessName,
		Bio:              d.Bio,
		Location:         d.Location,
		Country:          d.Country,
		Phone:            d.Phone,
		WhatsApp:         d.WhatsApp,
		Languages:        []string(d.Languages),
		Recognitions:     []Recognition(d.Recognitions),
		SubscriptionPlan: string(d.SubscriptionPlan),
		Status:           string(d.Status),
		IsVerified:       d.IsVerified,
		IsClaimed:        d.IsClaimed,
		IsClaimable:      d.IsClaimable,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if resp.Languages == nil {
		resp.Languages = []string{}
	}

	if canSeePrivate(d, viewer) {
		resp.UserID = d.UserID
		earnings := d.EarningsTotal
		resp.EarningsTotal = &earnings
		return resp
	}

	features := subscription.FeaturesFor(d.SubscriptionPlan)
	if !features.ContactVisible {
		resp.Phone = ""
		resp.WhatsApp = ""
	}
	if !features.RecognitionsEnabled {
		resp.Recognitions = nil
	}

	return resp
}

func ToResponseList(ds []Detective, viewer *access.Principal) []DetectiveResponse {
	out := make([]DetectiveResponse, 0, len(ds))
	for i := range ds {
		out = append(out, ToResponse(&ds[i], viewer))
	}
	return out
}

func canSeePrivate(d *Detective, viewer *access.Principal) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || (d.UserID != nil && *d.UserID == viewer.ID)
}

type ListParams struct {
	core.Pagination
	Search      string
	Country     string
	Status      Status
	Plan        subscription.Plan
	IsClaimable *bool
	IsVerified  *bool
}

type PlanResponse struct {
	Plan     subscription.Plan     `json:"plan"`
	Features subscription.Features `json:"features"`
}
