package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/flowersdz/gallery-admin/internal/pkg/response"
)

// RateLimit limits requests per client IP. rate uses the limiter format, e.g. "60-M".
func RateLimit(rate string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), parsed, limiter.WithTrustForwardHeader(true))
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error().Err(err).Msg("Rate limiter failed")
			response.InternalError(w)
		}),
	)
	return mw.Handler, nil
}
