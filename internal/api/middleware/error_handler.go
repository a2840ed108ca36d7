package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			// The body limit trips before any handler runs.
			switch fiberErr.Code {
			case fiber.StatusRequestEntityTooLarge:
				return writeAppError(c, domain.ErrImageTooLarge)
			case fiber.StatusNotFound:
				return writeAppError(c, domain.ErrNotFound)
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "HTTP_ERROR",
					"message": fiberErr.Message,
				},
			})
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("request_id", RequestID(c)),
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
				)
			} else if appErr.Err != nil {
				logger.Debug("request rejected",
					slog.String("request_id", RequestID(c)),
					slog.String("code", appErr.Code),
					slog.Any("error", appErr.Err),
				)
			}
			return writeAppError(c, appErr)
		}

		logger.Error("unhandled error",
			slog.String("request_id", RequestID(c)),
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		return writeAppError(c, domain.ErrInternal)
	}
}

func writeAppError(c *fiber.Ctx, appErr *domain.AppError) error {
	return c.Status(appErr.StatusCode).JSON(fiber.Map{
		"status": "error",
		"error": fiber.Map{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
