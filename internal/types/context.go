package types

import "context"

// ContextKey is the type for all context keys set by this service.
type ContextKey string

const (
	CtxRequestID     ContextKey = "ctx_request_id"
	CtxTenantID      ContextKey = "ctx_tenant_id"
	CtxUserID        ContextKey = "ctx_user_id"
	CtxEnvironmentID ContextKey = "ctx_environment_id"
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, CtxTenantID, tenantID)
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

func SetEnvironmentID(ctx context.Context, environmentID string) context.Context {
	return context.WithValue(ctx, CtxEnvironmentID, environmentID)
}

func GetRequestID(ctx context.Context) string {
	return ctxString(ctx, CtxRequestID)
}

// GetTenantID returns the seller whose data is being analyzed. Every request
// is scoped to exactly one tenant; there is no cross-tenant aggregation.
func GetTenantID(ctx context.Context) string {
	return ctxString(ctx, CtxTenantID)
}

func GetUserID(ctx context.Context) string {
	return ctxString(ctx, CtxUserID)
}

func GetEnvironmentID(ctx context.Context) string {
	return ctxString(ctx, CtxEnvironmentID)
}

func ctxString(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
