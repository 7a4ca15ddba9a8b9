package handlers

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/derive"
	"github.com/gofiber/fiber/v3"
)

// ErrInvalidBody is returned when a request body cannot be decoded
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// toHTTPError maps catalog errors onto HTTP status codes. Uniqueness
// violations are conflicts, every other validation failure a bad request.
func toHTTPError(err error) error {
	var validationErr *catalog.ValidationError
	if errors.As(err, &validationErr) {
		message := validationErr.Reason
		if validationErr.Field != "" {
			message = fmt.Sprintf("%s: %s", validationErr.Reason, validationErr.Field)
		}

		if validationErr.IsCollision() {
			return fiber.NewError(fiber.StatusConflict, message)
		}

		return fiber.NewError(fiber.StatusBadRequest, message)
	}

	var notFoundErr *catalog.NotFoundError
	if errors.As(err, &notFoundErr) {
		return fiber.NewError(fiber.StatusNotFound, notFoundErr.Error())
	}

	if errors.Is(err, derive.ErrInvalidSpec) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err
}
