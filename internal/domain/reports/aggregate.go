package reports

import "github.com/shopspring/decimal"

// Sum adds value(item) over items. The empty sum is zero.
func Sum[T any](items []T, value func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(value(item))
	}
	return total
}

// Average is the arithmetic mean of value(item). It is zero, not NaN, for an
// empty sequence.
func Average[T any](items []T, value func(T) decimal.Decimal) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	return Sum(items, value).Div(decimal.NewFromInt(int64(len(items))))
}

func CountBy[T any](items []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, item := range items {
		out[key(item)]++
	}
	return out
}

func SumBy[T any](items []T, key func(T) string, value func(T) decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, item := range items {
		k := key(item)
		out[k] = out[k].Add(value(item))
	}
	return out
}

// Count returns how many items satisfy keep.
func Count[T any](items []T, keep func(T) bool) int {
	n := 0
	for _, item := range items {
		if keep(item) {
			n++
		}
	}
	return n
}

func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
