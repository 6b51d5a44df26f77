package reqctx

import "context"

type contextKey string

const requestIDKey contextKey = "requestID"

// WithRequestID returns a context carrying the id of the inbound request, so
// calls made on its behalf can be correlated with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID retrieves the request id from the context, if any.
func RequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
