package utils

import (
	"context"
	"strconv"

	"github.com/margindesk/margindesk_backend/appctx"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyRole          = appctx.ContextKeyRole
	ContextKeyTriggeredBy   = appctx.ContextKeyTriggeredBy
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRole)
}

func SetRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyRole, role)
}

// TriggeredBy names who started a sync, for the SyncLog. Defaults to "manual"; the auth
// middleware stores "user:<id>" for authenticated requests.
func TriggeredBy(ctx context.Context) string {
	if v, ok := appctx.GetString(ctx, ContextKeyTriggeredBy); ok && v != "" {
		return v
	}
	return "manual"
}

// TriggeredByUser is the TriggeredBy value for an authenticated user.
func TriggeredByUser(userId int) string {
	return "user:" + strconv.Itoa(userId)
}

func SetTriggeredByInContext(ctx context.Context, who string) context.Context {
	return appctx.Set(ctx, ContextKeyTriggeredBy, who)
}
