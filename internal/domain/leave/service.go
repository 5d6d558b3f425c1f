package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hrms/internal/platform/querier"
)

type Repository interface {
	ListRequests(ctx context.Context, tenantID string, filter ListFilter) ([]LeaveRequest, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (LeaveRequest, error)
	InsertRequest(ctx context.Context, tenantID string, req LeaveRequest) (LeaveRequest, error)
	UpdateDetails(ctx context.Context, tenantID string, req LeaveRequest) (LeaveRequest, error)
	UpdateDecision(ctx context.Context, tenantID string, req LeaveRequest) (LeaveRequest, error)
	DeleteRequest(ctx context.Context, tenantID, requestID string) error
	ListAllotments(ctx context.Context, tenantID string) (Allotments, error)
	UpsertAllotment(ctx context.Context, tenantID string, allotment Allotment) error
}

type Service struct {
	Store Repository
	Now   func() time.Time
}

func NewService(store Repository) *Service {
	return &Service{Store: store, Now: time.Now}
}

type RequestInput struct {
	EmployeeID string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

func (s *Service) Submit(ctx context.Context, tenantID string, input RequestInput) (LeaveRequest, error) {
	req, err := NewRequest(input.EmployeeID, input.Type, input.StartDate, input.EndDate, input.Reason)
	if err != nil {
		return LeaveRequest{}, err
	}
	created, err := s.Store.InsertRequest(ctx, tenantID, req)
	if err != nil {
		return LeaveRequest{}, mapStoreError(err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, tenantID, requestID string) (LeaveRequest, error) {
	req, err := s.Store.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return LeaveRequest{}, mapStoreError(err)
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]LeaveRequest, error) {
	return s.Store.ListRequests(ctx, tenantID, filter)
}

// Update is the administrative edit. Status is not part of the input.
func (s *Service) Update(ctx context.Context, tenantID, requestID string, input RequestInput) (LeaveRequest, error) {
	req, err := s.Get(ctx, tenantID, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := req.Edit(input.Type, input.StartDate, input.EndDate, input.Reason); err != nil {
		return LeaveRequest{}, err
	}
	updated, err := s.Store.UpdateDetails(ctx, tenantID, req)
	if err != nil {
		return LeaveRequest{}, mapStoreError(err)
	}
	return updated, nil
}

func (s *Service) Approve(ctx context.Context, tenantID, requestID, approverID string) (LeaveRequest, error) {
	return s.decide(ctx, tenantID, requestID, func(req *LeaveRequest) error {
		return req.Approve(approverID, s.Now())
	})
}

func (s *Service) Reject(ctx context.Context, tenantID, requestID, approverID string) (LeaveRequest, error) {
	return s.decide(ctx, tenantID, requestID, func(req *LeaveRequest) error {
		return req.Reject(approverID, s.Now())
	})
}

func (s *Service) decide(ctx context.Context, tenantID, requestID string, transition func(*LeaveRequest) error) (LeaveRequest, error) {
	req, err := s.Get(ctx, tenantID, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := transition(&req); err != nil {
		return LeaveRequest{}, err
	}
	updated, err := s.Store.UpdateDecision(ctx, tenantID, req)
	if err != nil {
		return LeaveRequest{}, mapStoreError(err)
	}
	return updated, nil
}

// Delete removes the request whatever its status. Reserved for HR, since
// removing an approved request also returns its days to the balance.
func (s *Service) Delete(ctx context.Context, tenantID, requestID string) error {
	return mapStoreError(s.Store.DeleteRequest(ctx, tenantID, requestID))
}

// Withdraw deletes a request that has not been decided yet.
func (s *Service) Withdraw(ctx context.Context, tenantID, requestID string) error {
	req, err := s.Get(ctx, tenantID, requestID)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return ErrInvalidTransition
	}
	return s.Delete(ctx, tenantID, requestID)
}

// Balances is evaluated fresh on every call from the employee's requests.
func (s *Service) Balances(ctx context.Context, tenantID, employeeID string) ([]Balance, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, ErrInvalidArgument
	}
	requests, err := s.Store.ListRequests(ctx, tenantID, ListFilter{EmployeeID: employeeID})
	if err != nil {
		return nil, mapStoreError(err)
	}
	allotments, err := s.Store.ListAllotments(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load allotments: %w", err)
	}
	return Balances(requests, allotments), nil
}

func (s *Service) Allotments(ctx context.Context, tenantID string) ([]Allotment, error) {
	allotments, err := s.Store.ListAllotments(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Allotment, 0, len(allotments))
	for leaveType, days := range allotments {
		out = append(out, Allotment{Type: leaveType, AnnualTotalDays: days})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *Service) SetAllotment(ctx context.Context, tenantID string, allotment Allotment) (Allotment, error) {
	allotment.Type = strings.TrimSpace(allotment.Type)
	if allotment.Type == "" || allotment.AnnualTotalDays < 0 {
		return Allotment{}, ErrInvalidArgument
	}
	if err := s.Store.UpsertAllotment(ctx, tenantID, allotment); err != nil {
		return Allotment{}, err
	}
	return allotment, nil
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition):
		return err
	case querier.IsInvalidInput(err):
		return ErrNotFound
	case querier.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: unknown employee", ErrInvalidArgument)
	default:
		return err
	}
}
