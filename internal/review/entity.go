// AngelaMos | 2026
// entity.go

package review

import (
	"time"
)

type Review struct {
	ID          string    `db:"id"`
	ServiceID   string    `db:"service_id"`
	UserID      string    `db:"user_id"`
	Rating      int       `db:"rating"`
	Comment     string    `db:"comment"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const reviewColumns = `id, service_id, user_id, rating, comment, is_published,
	created_at, updated_at`
