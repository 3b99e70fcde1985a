// AngelaMos | 2026
// entity.go

package catalog

import (
	"time"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type Category struct {
	ID          string    `db:"id"`
	Slug        string    `db:"slug"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const categoryColumns = `id, slug, name, description, is_active, created_at, updated_at`

// Service is a priced offering a detective lists under one category.
type Service struct {
	ID          string          `db:"id"`
	DetectiveID string          `db:"detective_id"`
	Category    string          `db:"category"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	BasePrice   float64         `db:"base_price"`
	OfferPrice  *float64        `db:"offer_price"`
	Images      core.StringList `db:"images"`
	IsActive    bool            `db:"is_active"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

const serviceColumns = `id, detective_id, category, title, description,
	base_price, offer_price, images, is_active, created_at, updated_at`
