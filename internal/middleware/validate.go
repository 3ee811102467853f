package middleware

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/postgen/internal/logger"
)

const (
	bodyKey  = "validatedBody"
	queryKey = "validatedQuery"
)

var validate = validator.New()

// ValidateBody parses the JSON body into a fresh T per request and validates
// it. An empty body validates the zero value.
func ValidateBody[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := new(T)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(v); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid request body",
					"msg":   err.Error(),
				})
			}
		}

		if fields, ok := check(v); !ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "Validation failed",
				"fields": fields,
			})
		}

		c.Locals(bodyKey, v)
		return c.Next()
	}
}

// ValidateQuery is ValidateBody for query parameters
func ValidateQuery[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := new(T)
		if err := c.QueryParser(v); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid query parameters",
				"msg":   err.Error(),
			})
		}

		if fields, ok := check(v); !ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "Invalid query parameters",
				"fields": fields,
			})
		}

		c.Locals(queryKey, v)
		return c.Next()
	}
}

// Body returns the value stored by ValidateBody
func Body[T any](c *fiber.Ctx) *T {
	v, _ := c.Locals(bodyKey).(*T)
	if v == nil {
		v = new(T)
	}
	return v
}

// Query returns the value stored by ValidateQuery
func Query[T any](c *fiber.Ctx) *T {
	v, _ := c.Locals(queryKey).(*T)
	if v == nil {
		v = new(T)
	}
	return v
}

func check(v any) (map[string]string, bool) {
	err := validate.Struct(v)
	if err == nil {
		return nil, true
	}

	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return fields, false
}

// ErrorHandler renders every error as {"error": message}. Only *fiber.Error
// messages reach the client; anything else becomes a generic status text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := http.StatusText(code)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		logger.Get().Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", code).
			Msg("HTTP error")
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
