package response

import "github.com/gofiber/fiber/v3"

const (
	MessageBadRequest          = "bad request"
	MessageUnauthorized        = "unauthorized"
	MessageForbidden           = "forbidden"
	MessageNotFound            = "not found"
	MessageConflict            = "conflict"
	MessageTooManyRequests     = "too many requests"
	MessageInternalServerError = "internal server error"
	MessageBadGateway          = "bad gateway"
	MessageServiceUnavailable  = "service unavailable"
	MessageError               = "error"
)

// Success writes {"ok": true, ...fields}.
func Success(c fiber.Ctx, status int, fields fiber.Map) error {
	body := fiber.Map{}
	for k, v := range fields {
		body[k] = v
	}
	body["ok"] = true
	return c.Status(normalizeStatus(status)).JSON(body)
}

// Error writes {"ok": false, "error": message, ...fields}.
func Error(c fiber.Ctx, status int, message string, fields fiber.Map) error {
	st := normalizeStatus(status)
	body := fiber.Map{}
	for k, v := range fields {
		body[k] = v
	}
	body["ok"] = false
	body["error"] = normalizeMessage(message, st)
	return c.Status(st).JSON(body)
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}

func normalizeMessage(message string, status int) string {
	if message != "" {
		return message
	}
	return DefaultMessageForStatus(status)
}

func DefaultMessageForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return MessageBadRequest
	case fiber.StatusUnauthorized:
		return MessageUnauthorized
	case fiber.StatusForbidden:
		return MessageForbidden
	case fiber.StatusNotFound:
		return MessageNotFound
	case fiber.StatusConflict:
		return MessageConflict
	case fiber.StatusTooManyRequests:
		return MessageTooManyRequests
	case fiber.StatusBadGateway:
		return MessageBadGateway
	case fiber.StatusServiceUnavailable:
		return MessageServiceUnavailable
	default:
		if status >= 500 {
			return MessageInternalServerError
		}
		return MessageError
	}
}
