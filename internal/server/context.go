// internal/server/context.go
package server

import (
	"context"
	"net/http"
)

type contextKey string

const contextKeyRequestID contextKey = "requestID"

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// requestIDFrom returns the id set by requestIDMiddleware, or "".
func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(contextKeyRequestID).(string)
	return id
}
