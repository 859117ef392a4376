package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
)

// RateLimiter es el contrato mínimo que necesita el middleware. Lo implementa *cache.RedisRateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, int, error)
}

// RateLimit limita peticiones por usuario (o IP si no hay token). Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 429 Too Many Requests cuando se agota la ventana.
//   - Si Redis falla, la petición pasa (se registra warning).
//   - limiter nil deshabilita el middleware.
func RateLimit(limiter RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		key := GetUserID(c)
		if key == "" {
			key = "ip:" + c.IP()
		}

		allowed, remaining, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit no disponible")
			return c.Next()
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "demasiadas peticiones, intente más tarde",
			})
		}
		return c.Next()
	}
}
