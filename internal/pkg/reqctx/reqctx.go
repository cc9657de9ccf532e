// Package reqctx carries per-request values (request ID, authenticated user)
// through context.Context without import cycles between api and infra.
package reqctx

import "context"

type key int

const (
	requestIDKey key = iota
	userIDKey
	queryStartKey
)

// WithRequestID stores the request ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithUserID stores the authenticated user ID
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user ID
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithQueryStart is used by the database tracer
func WithQueryStart(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, queryStartKey, v)
}

// QueryStart returns the value stored by WithQueryStart
func QueryStart(ctx context.Context) any {
	return ctx.Value(queryStartKey)
}
