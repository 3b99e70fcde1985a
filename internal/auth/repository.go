// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

// expiredGrace keeps expired tokens around for a day so reuse of a stale
// token is still recognised and revokes its family.
const expiredGrace = 24 * time.Hour

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	GetActiveSessionsForUser(
		ctx context.Context,
		userID string,
	) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query, args, err := core.Psql.Insert("refresh_tokens").
		SetMap(map[string]any{
			"id":         token.ID,
			"user_id":    token.UserID,
			"token_hash": token.TokenHash,
			"family_id":  token.FamilyID,
			"expires_at": token.ExpiresAt,
			"user_agent": token.UserAgent,
			"ip_address": token.IPAddress,
		}).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build refresh token insert: %w", err)
	}

	if err := r.db.GetContext(ctx, &token.CreatedAt, query, args...); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	return r.findOne(ctx, sq.Eq{"token_hash": tokenHash})
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *repository) findOne(ctx context.Context, where sq.Eq) (*RefreshToken, error) {
	query, args, err := core.Psql.Select(tokenColumns).
		From("refresh_tokens").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build refresh token query: %w", err)
	}

	var token RefreshToken
	err = r.db.GetContext(ctx, &token, query, args...)
	if core.IsMissingRow(err) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

// MarkAsUsed claims token id for a single rotation. A concurrent refresh
// that already consumed it gets core.ErrNotFound.
func (r *repository) MarkAsUsed(
	ctx context.Context,
	id, replacedByID string,
) error {
	update := core.Psql.Update("refresh_tokens").
		Set("is_used", true).
		Set("used_at", sq.Expr("NOW()")).
		Set("replaced_by_id", replacedByID).
		Where(sq.Eq{"id": id, "is_used": false, "revoked_at": nil})

	n, err := r.exec(ctx, "mark refresh token as used", update)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("mark refresh token as used: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	n, err := r.revoke(ctx, "revoke refresh token", sq.Eq{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeByFamilyID(
	ctx context.Context,
	familyID string,
) error {
	_, err := r.revoke(ctx, "revoke token family", sq.Eq{"family_id": familyID})
	return err
}

func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
) error {
	_, err := r.revoke(ctx, "revoke all user tokens", sq.Eq{"user_id": userID})
	return err
}

func (r *repository) revoke(ctx context.Context, op string, where sq.Eq) (int64, error) {
	where["revoked_at"] = nil

	return r.exec(ctx, op, core.Psql.Update("refresh_tokens").
		Set("revoked_at", sq.Expr("NOW()")).
		Where(where))
}

func (r *repository) GetActiveSessionsForUser(
	ctx context.Context,
	userID string,
) ([]RefreshToken, error) {
	query, args, err := core.Psql.Select(tokenColumns).
		From("refresh_tokens").
		Where(sq.Eq{"user_id": userID, "revoked_at": nil, "is_used": false}).
		Where("expires_at > NOW()").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sessions query: %w", err)
	}

	var tokens []RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, args...); err != nil {
		return nil, fmt.Errorf("get active sessions: %w", err)
	}

	return tokens, nil
}

func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-expiredGrace)

	return r.exec(ctx, "delete expired tokens", core.Psql.
		Delete("refresh_tokens").
		Where(sq.Lt{"expires_at": cutoff}))
}

func (r *repository) exec(ctx context.Context, op string, stmt sq.Sqlizer) (int64, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}
