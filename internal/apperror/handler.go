package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const internalMessage = "internal server error"

// Handler is installed as fiber.Config.ErrorHandler so every route reports
// failures with the same JSON shape.
func Handler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *Error
		if errors.As(err, &appErr) {
			return render(c, log, appErr)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code >= fiber.StatusInternalServerError {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
				return c.Status(fe.Code).JSON(fiber.Map{"message": internalMessage})
			}
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		log.Error("request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": internalMessage})
	}
}

func render(c *fiber.Ctx, log *zap.Logger, e *Error) error {
	switch e.Kind {
	case Validation:
		body := fiber.Map{"message": e.Message}
		if len(e.Fields) > 0 {
			body["errors"] = e.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case BusinessRule:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": e.Message})
	case Unauthorized:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": e.Message})
	case NotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": e.Message})
	case RateLimited:
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": e.Message})
	default:
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("reason", e.Message),
			zap.Error(e.Err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": internalMessage})
	}
}
