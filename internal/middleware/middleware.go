// Package middleware holds the cross-cutting fiber handlers installed in front
// of every route.
package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request after the handler chain has run.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the app's error handler has not written the response yet
			status = statusOf(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
		return err
	}
}

// Metrics records request counts and latency labelled by route pattern, so
// ids in paths do not create new series.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		path := c.Route().Path
		if path == "" || (path == "/" && c.Path() != "/") {
			path = "unmatched"
		}
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		util.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		util.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

func statusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.Validation, apperror.BusinessRule:
		return fiber.StatusBadRequest
	case apperror.Unauthorized:
		return fiber.StatusUnauthorized
	case apperror.NotFound:
		return fiber.StatusNotFound
	case apperror.RateLimited:
		return fiber.StatusTooManyRequests
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// RequestID tags every request with an X-Request-ID, reusing the client's when sent.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Generator: uuid.NewString,
	})
}

func Recover() fiber.Handler {
	return recover.New()
}

// SecurityHeaders sets the usual hardening headers. Cross-origin resource
// policy stays open so product images can be embedded by the storefront.
func SecurityHeaders() fiber.Handler {
	return helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
		CrossOriginEmbedderPolicy: "unsafe-none",
	})
}

// CORS allows the configured origins. Credentials are only allowed for an
// explicit origin list since browsers refuse them with a wildcard.
func CORS(origins string) fiber.Handler {
	origins = strings.TrimSpace(origins)
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: origins != "*",
	})
}

// RateLimit allows max requests per client IP within window and answers the
// rest with 429 and message.
func RateLimit(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return apperror.NewRateLimited(message)
		},
	})
}
