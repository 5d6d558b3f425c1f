package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/leave"
	"hrms/internal/platform/config"
	"hrms/internal/platform/querier"
)

// Seed makes sure the configured tenant exists with its roles, permissions,
// admin user and default leave allotments. It is safe to run on every boot.
func Seed(ctx context.Context, db querier.Querier, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, db, cfg.SeedTenantName)
	if err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	if err := ensurePermissions(ctx, db); err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}

	roleIDs, err := ensureRoles(ctx, db, tenantID)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	if err := ensureRolePermissions(ctx, db, roleIDs); err != nil {
		return fmt.Errorf("seed role permissions: %w", err)
	}

	if err := ensureAdminUser(ctx, db, tenantID, roleIDs[auth.RoleHR], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	if err := ensureLeaveAllotments(ctx, db, tenantID); err != nil {
		return fmt.Errorf("seed leave allotments: %w", err)
	}
	return nil
}

func ensureTenant(ctx context.Context, db querier.Querier, name string) (string, error) {
	var id string
	err := db.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = db.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

func ensurePermissions(ctx context.Context, db querier.Querier) error {
	for _, perm := range auth.DefaultPermissions {
		if _, err := db.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm); err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, db querier.Querier, tenantID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := db.QueryRow(ctx, `
    INSERT INTO roles (tenant_id, name) VALUES ($1, $2)
    ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, tenantID, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, db querier.Querier, roleIDs map[string]string) error {
	permIDs := map[string]string{}
	rows, err := db.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			rows.Close()
			return err
		}
		permIDs[key] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for roleName, perms := range auth.RolePermissions {
		for _, key := range perms {
			permID, ok := permIDs[key]
			if !ok {
				return fmt.Errorf("permission not found: %s", key)
			}
			if _, err := db.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleIDs[roleName], permID); err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, db querier.Querier, tenantID, roleID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND lower(email) = $2", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, "INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4)", tenantID, email, hash, roleID)
	return err
}

// Existing rows are left alone so tenant overrides survive a restart.
func ensureLeaveAllotments(ctx context.Context, db querier.Querier, tenantID string) error {
	for leaveType, days := range leave.DefaultAllotments() {
		if _, err := db.Exec(ctx, `
    INSERT INTO leave_allotments (tenant_id, type, annual_total_days)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id, type) DO NOTHING
  `, tenantID, leaveType, days); err != nil {
			return err
		}
	}
	return nil
}
