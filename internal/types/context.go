package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxClientID  ContextKey = "ctx_client_id"
)

const (
	HeaderRequestID = "X-Request-ID"
)

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func GetClientID(ctx context.Context) string {
	if clientID, ok := ctx.Value(CtxClientID).(string); ok {
		return clientID
	}
	return ""
}

// SetClientID sets the payment client ID in the context
func SetClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, CtxClientID, clientID)
}
