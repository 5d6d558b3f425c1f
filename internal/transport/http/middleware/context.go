package middleware

import "context"

type ctxKey int

const (
	ctxKeyUser ctxKey = iota
	ctxKeyRequestID
)

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return value
	}
	return ""
}
