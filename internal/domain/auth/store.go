package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.tenant_id, u.role_id, r.name, u.password_hash
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1) AND u.status = 'active'
  `, email).Scan(&out.ID, &out.TenantID, &out.RoleID, &out.RoleName, &out.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrInvalidCredentials
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON rp.permission_id = p.id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) IsUserActive(ctx context.Context, tenantID, userID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users
    WHERE tenant_id = $1 AND id = $2 AND status = 'active'
  `, tenantID, userID).Scan(&count)
	if err != nil {
		if querier.IsInvalidInput(err) {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}
