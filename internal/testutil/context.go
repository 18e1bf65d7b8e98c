package testutil

import (
	"context"

	"github.com/flexprice/payhook/internal/types"
)

// DefaultClientID is the payment client used across tests
const DefaultClientID = "client_test"

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	ctx = types.SetClientID(ctx, DefaultClientID)
	return ctx
}
