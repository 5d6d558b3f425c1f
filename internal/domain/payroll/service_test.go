package payroll

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	entries map[string]Entry
	nextID  int
}

func (f *fakeRepository) List(context.Context, string, ListFilter) ([]Entry, error) {
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRepository) Get(_ context.Context, _ string, id string) (Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeRepository) Insert(_ context.Context, _ string, e Entry) (Entry, error) {
	f.nextID++
	e.ID = fmt.Sprintf("pay-%d", f.nextID)
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeRepository) UpdateAmounts(_ context.Context, _ string, e Entry) (Entry, error) {
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeRepository) UpdateWPSStatus(_ context.Context, _ string, e Entry, previous string) (Entry, error) {
	if f.entries[e.ID].WPSStatus != previous {
		return Entry{}, ErrInvalidTransition
	}
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeRepository) Delete(_ context.Context, _ string, id string) error {
	if _, ok := f.entries[id]; !ok {
		return ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeRepository) EmployeeSalary(_ context.Context, _ string, employeeID string) (decimal.Decimal, string, error) {
	if employeeID != "emp-1" {
		return decimal.Zero, "", ErrEmployeeNotFound
	}
	return dec("9000"), "AED", nil
}

func juneInput() EntryInput {
	return EntryInput{
		EmployeeID:  "emp-1",
		PeriodStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Lines:       []InputLine{{Type: ElementTypeEarning, Amount: dec("1000")}},
	}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeRepository{entries: map[string]Entry{}})

	created, err := svc.Create(ctx, "t1", juneInput())
	require.NoError(t, err)
	assert.True(t, created.Net.Equal(dec("10000")))
	assert.Equal(t, "AED", created.Currency)
	assert.Equal(t, WPSPending, created.WPSStatus)

	in := juneInput()
	in.BasicSalary = decimal.NewNullDecimal(dec("9500"))
	_, updated, err := svc.Update(ctx, "t1", created.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.Gross.Equal(dec("10500")))

	_, submitted, err := svc.SetWPSStatus(ctx, "t1", created.ID, WPSSubmitted, "SIF-1")
	require.NoError(t, err)
	assert.Equal(t, WPSSubmitted, submitted.WPSStatus)

	_, _, err = svc.Update(ctx, "t1", created.ID, juneInput())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = svc.SetWPSStatus(ctx, "t1", created.ID, WPSPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, rejected, err := svc.SetWPSStatus(ctx, "t1", created.ID, WPSRejected, "")
	require.NoError(t, err)
	assert.True(t, rejected.Editable())
	assert.Equal(t, "SIF-1", rejected.WPSReference)
}

func TestServiceCreateUnknownEmployee(t *testing.T) {
	svc := NewService(&fakeRepository{entries: map[string]Entry{}})
	in := juneInput()
	in.EmployeeID = "emp-404"
	_, err := svc.Create(context.Background(), "t1", in)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	in.EmployeeID = ""
	_, err = svc.Create(context.Background(), "t1", in)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
