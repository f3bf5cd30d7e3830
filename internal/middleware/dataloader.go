package middleware

import (
	"context"
	"net/http"

	"github.com/rpattn/restquery/internal/countloader"
)

type ctxKey string

const countLoaderKey ctxKey = "countLoader"

// CountLoaderMiddleware attaches a request-scoped count loader to the context
func CountLoaderMiddleware(counter countloader.Counter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := countloader.NewCountLoader(counter)
			ctx := WithCountLoader(r.Context(), loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithCountLoader stores loader in ctx.
func WithCountLoader(ctx context.Context, loader *countloader.CountLoader) context.Context {
	return context.WithValue(ctx, countLoaderKey, loader)
}

// CountLoaderFromContext retrieves the count loader from context
func CountLoaderFromContext(ctx context.Context) *countloader.CountLoader {
	if l, ok := ctx.Value(countLoaderKey).(*countloader.CountLoader); ok {
		return l
	}
	return nil
}
