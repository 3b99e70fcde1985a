// AngelaMos | 2026
// entity.go

package claim

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
)

// ErrClaimantHasProfile is returned when the claimant's account already owns
// a detective profile. A user owns at most one.
var ErrClaimantHasProfile = core.NewAppError(
	core.ErrConflict,
	"claimant already owns a detective profile",
	http.StatusConflict,
	"CLAIMANT_HAS_PROFILE",
)

// ErrCompensationFailed is the client-facing form of
// saga.ErrCompensationFailed.
var ErrCompensationFailed = core.NewAppError(
	core.ErrInternalError,
	"claim approval failed and could not be fully rolled back",
	http.StatusInternalServerError,
	"COMPENSATION_FAILED",
)

var ErrDocumentsDisabled = core.NewAppError(
	core.ErrInternalError,
	"document storage is not configured",
	http.StatusServiceUnavailable,
	"STORAGE_DISABLED",
)

// Claim is a request to take ownership of an unclaimed detective profile.
type Claim struct {
	ID             string           `db:"id"`
	DetectiveID    string           `db:"detective_id"`
	ClaimantName   string           `db:"claimant_name"`
	ClaimantEmail  string           `db:"claimant_email"`
	ClaimantPhone  string           `db:"claimant_phone"`
	Documents      core.StringList  `db:"documents"`
	Details        string           `db:"details"`
	Status         lifecycle.Status `db:"status"`
	ReviewNotes    string           `db:"review_notes"`
	ReviewedBy     *string          `db:"reviewed_by"`
	ReviewedAt     *time.Time       `db:"reviewed_at"`
	ClaimantUserID *string          `db:"claimant_user_id"`
	LastError      *string          `db:"last_error"`
	CreatedAt      time.Time        `db:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at"`
}

const claimColumns = `id, detective_id, claimant_name, claimant_email,
	claimant_phone, documents, details, status, review_notes, reviewed_by,
	reviewed_at, claimant_user_id, last_error, created_at, updated_at`
