package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"private-spaces-backend/pkg/config"
	"private-spaces-backend/pkg/utils"

	"go.uber.org/zap"
)

// Recovery turns panics into 500 responses. Development mode includes
// the panic value in the response body; production hides it.
func Recovery(cfg *config.Config, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.Any("panic", err),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					if cfg.IsDevelopment() {
						utils.WriteInternalServerErrorResponse(w, fmt.Sprintf("Internal server error: %v", err))
					} else {
						utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
