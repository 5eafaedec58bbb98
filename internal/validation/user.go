// Package validation implements the field rule chain applied to user
// payloads before any write. Rules run per field and all failures are
// collected; a payload is only accepted with an empty error list.
package validation

import (
	"regexp"
	"strings"

	"github.com/userdeck/backend/internal/dto"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	zipPattern   = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)
)

// ValidateUser trims every field of req in place, then checks the full rule
// set. It returns nil when the payload is acceptable. Phone is deliberately
// checked for presence only; the stricter format pattern is a client-side
// concern.
func ValidateUser(req *dto.UserRequest) []dto.FieldError {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.ZipCode = strings.TrimSpace(req.ZipCode)

	var errs []dto.FieldError
	addErr := func(field, message string) {
		errs = append(errs, dto.FieldError{Field: field, Message: message})
	}

	switch {
	case req.FirstName == "":
		addErr("firstName", "First name is required")
	case len(req.FirstName) > 50:
		addErr("firstName", "First name cannot exceed 50 characters")
	}

	switch {
	case req.LastName == "":
		addErr("lastName", "Last name is required")
	case len(req.LastName) > 50:
		addErr("lastName", "Last name cannot exceed 50 characters")
	}

	switch {
	case req.Email == "":
		addErr("email", "Email is required")
	case !emailPattern.MatchString(req.Email) || len(req.Email) > 100:
		addErr("email", "Please enter a valid email")
	}

	if req.Phone == "" {
		addErr("phone", "Phone number is required")
	}

	switch {
	case req.Address == "":
		addErr("address", "Address is required")
	case len(req.Address) > 200:
		addErr("address", "Address cannot exceed 200 characters")
	}

	switch {
	case req.City == "":
		addErr("city", "City is required")
	case len(req.City) > 100:
		addErr("city", "City cannot exceed 100 characters")
	}

	switch {
	case req.State == "":
		addErr("state", "State is required")
	case len(req.State) > 50:
		addErr("state", "State cannot exceed 50 characters")
	}

	switch {
	case req.ZipCode == "":
		addErr("zipCode", "ZIP code is required")
	case !zipPattern.MatchString(req.ZipCode):
		addErr("zipCode", "Please enter a valid ZIP code")
	}

	return errs
}
