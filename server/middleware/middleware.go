// Package middleware provides the net/http middleware chain of the server
// and the Gin-level rate limiter for upload routes.
package middleware

import "net/http"

// Middleware wraps an http.Handler. It applies to every route on the root
// mux, including handlers mounted outside Gin.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first in the list is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
