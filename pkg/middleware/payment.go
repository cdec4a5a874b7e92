package middleware

import (
	"crypto/subtle"
	"net/http"

	"cinema-inventory/pkg/utils"

	"go.uber.org/zap"
)

// PaymentSecretHeader carries the shared secret on provider callbacks.
const PaymentSecretHeader = "X-Payment-Secret"

// PaymentCallback only lets through requests carrying the payment provider's
// shared secret. A customer session token is not enough.
func PaymentCallback(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Warn("Payment callback refused: no callback secret configured",
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Payment callbacks are disabled")
				return
			}

			got := r.Header.Get(PaymentSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Warn("Payment callback with bad secret",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				utils.ResponseUnauthorized(w, "Invalid payment callback secret")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
