// AngelaMos | 2026
// subscription.go

package subscription

import (
	"net/http"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanAgency Plan = "agency"
)

// Unlimited is the MaxCategories value for plans without a category cap.
const Unlimited = -1

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanAgency:
		return true
	}
	return false
}

type Features struct {
	ContactVisible      bool `json:"contact_visible"`
	MaxCategories       int  `json:"max_categories"`
	RecognitionsEnabled bool `json:"recognitions_enabled"`
	PlatformFeePct      int  `json:"platform_fee_pct"`
}

var plans = map[Plan]Features{
	PlanFree: {
		ContactVisible:      false,
		MaxCategories:       1,
		RecognitionsEnabled: false,
		PlatformFeePct:      5,
	},
	PlanPro: {
		ContactVisible:      true,
		MaxCategories:       3,
		RecognitionsEnabled: true,
		PlatformFeePct:      2,
	},
	PlanAgency: {
		ContactVisible:      true,
		MaxCategories:       Unlimited,
		RecognitionsEnabled: true,
		PlatformFeePct:      0,
	},
}

// FeaturesFor returns the feature set for plan. Unknown plans get the free
// tier.
func FeaturesFor(plan Plan) Features {
	if f, ok := plans[plan]; ok {
		return f
	}
	return plans[PlanFree]
}

const (
	FieldPhone        = "phone"
	FieldWhatsApp     = "whatsapp"
	FieldRecognitions = "recognitions"
)

var ErrCategoryLimit = core.NewAppError(
	core.ErrConflict,
	"category limit reached for plan",
	http.StatusConflict,
	"CATEGORY_LIMIT",
)

// GatePatch removes the keys of a detective self update that plan does not
// unlock. It works on a copy and never clears stored values, it only keeps
// the caller from writing them.
func GatePatch(plan Plan, patch map[string]any) map[string]any {
	f := FeaturesFor(plan)
	out := make(map[string]any, len(patch))

	for k, v := range patch {
		switch k {
		case FieldPhone, FieldWhatsApp:
			if !f.ContactVisible {
				continue
			}
		case FieldRecognitions:
			if !f.RecognitionsEnabled {
				continue
			}
		}
		out[k] = v
	}

	return out
}

// AllowsCategories reports whether a detective on plan may be active in
// count distinct categories.
func (f Features) AllowsCategories(count int) bool {
	return f.MaxCategories == Unlimited || count <= f.MaxCategories
}

// CheckCategories returns ErrCategoryLimit when adding category to the
// current set would exceed the plan limit. Categories already in the set
// are always accepted.
func CheckCategories(plan Plan, current []string, category string) error {
	seen := make(map[string]struct{}, len(current)+1)
	for _, c := range current {
		seen[c] = struct{}{}
	}
	if _, ok := seen[category]; ok {
		return nil
	}
	seen[category] = struct{}{}

	if !FeaturesFor(plan).AllowsCategories(len(seen)) {
		return ErrCategoryLimit
	}
	return nil
}
