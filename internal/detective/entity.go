// AngelaMos | 2026
// entity.go

package detective

import (
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/subscription"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
)

// ErrNotClaimable is returned when a profile is already owned or was never
// opened for claiming. It is distinct from a review state conflict.
var ErrNotClaimable = core.NewAppError(
	core.ErrConflict,
	"profile is not claimable",
	http.StatusConflict,
	"NOT_CLAIMABLE",
)

type Detective struct {
	ID               string            `db:"id"`
	UserID           *string           `db:"user_id"`
	BusinessName     string            `db:"business_name"`
	Bio              string            `db:"bio"`
	Location         string            `db:"location"`
	Country          string            `db:"country"`
	Phone            string            `db:"phone"`
	WhatsApp         string            `db:"whatsapp"`
	Languages        core.StringList   `db:"languages"`
	Recognitions     Recognitions      `db:"recognitions"`
	SubscriptionPlan subscription.Plan `db:"subscription_plan"`
	Status           Status            `db:"status"`
	IsVerified       bool              `db:"is_verified"`
	IsClaimed        bool              `db:"is_claimed"`
	IsClaimable      bool              `db:"is_claimable"`
	EarningsTotal    float64           `db:"earnings_total"`
	CreatedAt        time.Time         `db:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at"`
}

// OwnerID returns the owning user id or "" for an unclaimed profile.
func (d Detective) OwnerID() string {
	if d.UserID == nil {
		return ""
	}
	return *d.UserID
}

func (d Detective) Claimable() bool {
	return d.IsClaimable && !d.IsClaimed
}

func (d Detective) Ownership() Ownership {
	return Ownership{
		UserID:      d.UserID,
		IsClaimed:   d.IsClaimed,
		IsClaimable: d.IsClaimable,
	}
}

// Ownership is the slice of a profile that a claim approval changes.
type Ownership struct {
	UserID      *string
	IsClaimed   bool
	IsClaimable bool
}

const detectiveColumns = `id, user_id, business_name, bio, location, country,
	phone, whatsapp, languages, recognitions, subscription_plan, status,
	is_verified, is_claimed, is_claimable, earnings_total, created_at, updated_at`

type Recognition struct {
	Title  string `json:"title"  validate:"required,max=200"`
	Issuer string `json:"issuer" validate:"max=200"`
	Year   int    `json:"year"   validate:"omitempty,gte=1900,lte=2100"`
}

// Recognitions are awards and memberships stored as a JSONB array.
type Recognitions []Recognition

func (r Recognitions) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Recognition(r))
}

func (r *Recognitions) Scan(src any) error {
	return core.ScanJSON(src, r)
}
