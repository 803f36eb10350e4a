package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

type errKind int

const (
	kindValidation errKind = iota
	kindForbidden
	kindNotFound
	kindConflict
	kindCapacity
)

// apiErr is an error with a public message and an HTTP status.
// Anything else that bubbles out of a handler turns into a 500.
type apiErr struct {
	kind    errKind
	message string
}

func (e *apiErr) Error() string { return e.message }

func (e *apiErr) status() int {
	switch e.kind {
	case kindForbidden:
		return http.StatusForbidden
	case kindNotFound:
		return http.StatusNotFound
	default:
		// validation, conflict and capacity all surface as 400
		return http.StatusBadRequest
	}
}

func errValidation(msg string) error { return &apiErr{kind: kindValidation, message: msg} }
func errForbidden(msg string) error  { return &apiErr{kind: kindForbidden, message: msg} }
func errNotFound(msg string) error   { return &apiErr{kind: kindNotFound, message: msg} }
func errConflict(msg string) error   { return &apiErr{kind: kindConflict, message: msg} }
func errCapacity(msg string) error   { return &apiErr{kind: kindCapacity, message: msg} }

// respondError writes the {success:false, message} envelope.
func respondError(c *fiber.Ctx, err error) error {
	var ae *apiErr
	if errors.As(err, &ae) {
		return c.Status(ae.status()).JSON(fiber.Map{"success": false, "message": ae.message})
	}
	log.Printf("internal error: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}
