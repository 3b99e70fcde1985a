// AngelaMos | 2026
// entity.go

package application

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/lifecycle"
)

type BusinessType string

const (
	BusinessIndividual BusinessType = "individual"
	BusinessAgency     BusinessType = "agency"
)

// Application is a prospective detective's request to join. Approval
// creates the user account and detective profile it describes.
type Application struct {
	ID              string           `db:"id"`
	FullName        string           `db:"full_name"`
	Email           string           `db:"email"`
	Phone           string           `db:"phone"`
	BusinessName    string           `db:"business_name"`
	BusinessType    BusinessType     `db:"business_type"`
	Country         string           `db:"country"`
	Location        string           `db:"location"`
	Bio             string           `db:"bio"`
	Languages       core.StringList  `db:"languages"`
	Categories      core.StringList  `db:"categories"`
	StartingPrice   *float64         `db:"starting_price"`
	LicenseNumber   string           `db:"license_number"`
	LicenseCountry  string           `db:"license_country"`
	YearsExperience int              `db:"years_experience"`
	PasswordHash    *string          `db:"password_hash"`
	Status          lifecycle.Status `db:"status"`
	ReviewNotes     string           `db:"review_notes"`
	ReviewedBy      *string          `db:"reviewed_by"`
	ReviewedAt      *time.Time       `db:"reviewed_at"`
	UserID          *string          `db:"user_id"`
	DetectiveID     *string          `db:"detective_id"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

const applicationColumns = `id, full_name, email, phone, business_name,
	business_type, country, location, bio, languages, categories,
	starting_price, license_number, license_country, years_experience,
	password_hash, status, review_notes, reviewed_by, reviewed_at, user_id,
	detective_id, created_at, updated_at`
