package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"hrms/internal/platform/querier"
)

const (
	EntityEmployee       = "employee"
	EntityDepartment     = "department"
	EntityBenefitRecord  = "benefit_record"
	EntityLeaveRequest   = "leave_request"
	EntityLeaveAllotment = "leave_allotment"
	EntityPayrollEntry   = "payroll_entry"
	EntityAsset          = "asset"
	EntityAudit          = "compliance_audit"
	EntityReview         = "performance_review"
	EntityExpense        = "expense"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
}

// Recorder is the write side handlers depend on.
type Recorder interface {
	Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func marshalState(state any) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}

// Record appends one event. before and after are stored as JSON snapshots.
func (s *Service) Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshalState(before)
	if err != nil {
		return fmt.Errorf("marshal before: %w", err)
	}
	afterJSON, err := marshalState(after)
	if err != nil {
		return fmt.Errorf("marshal after: %w", err)
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, tenantID, nullIfEmpty(actorID), action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

func (s *Service) Count(ctx context.Context, tenantID string, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "id, COALESCE(actor_user_id::text, ''), action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, tenantID, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

// WriteCSV streams every event of the tenant matching filter as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, tenantID string, filter Filter) error {
	query, args := buildBaseQuery("SELECT id, COALESCE(actor_user_id::text, ''), action, entity_type, entity_id, request_id, ip, created_at", tenantID, filter)
	rows, err := s.DB.Query(ctx, query+" ORDER BY created_at DESC", args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		return err
	}
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt); err != nil {
			return err
		}
		if err := writer.Write([]string{evt.ID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func buildBaseQuery(prefix, tenantID string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		query += fmt.Sprintf(" AND entity_id = $%d", len(args)+1)
		args = append(args, filter.EntityID)
	}
	if filter.ActorUser != "" {
		query += fmt.Sprintf(" AND actor_user_id::text = $%d", len(args)+1)
		args = append(args, filter.ActorUser)
	}
	return query, args
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
