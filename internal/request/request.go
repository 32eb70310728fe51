// Package request parses and validates HTTP input for the handlers.
package request

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"erp-backend/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const DateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Bind decodes the JSON body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Validation("invalid request body")
	}
	return Validate(dst)
}

func Validate(dst interface{}) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid request body")
	}
	return apperror.Validation(describe(verrs))
}

// describe renders field errors as "field: tag" pairs in a stable order.
func describe(verrs validator.ValidationErrors) string {
	fields := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		tag := ve.Tag()
		if ve.Param() != "" {
			tag += "=" + ve.Param()
		}
		fields = append(fields, fmt.Sprintf("%s: %s", strings.ToLower(ve.Field()), tag))
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

func ParamID(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperror.Validation("invalid " + name)
	}
	return uint(v), nil
}

// QueryUint returns 0 when the parameter is absent.
func QueryUint(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperror.Validation("invalid " + name)
	}
	return uint(v), nil
}

// QueryUints parses a comma separated id list such as "1,2,3".
func QueryUints(c *fiber.Ctx, name string) ([]uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, apperror.Validation("invalid " + name)
		}
		ids = append(ids, uint(v))
	}
	return ids, nil
}

// QueryDate parses a YYYY-MM-DD query parameter in loc.
func QueryDate(c *fiber.Ctx, name string, loc *time.Location) (*time.Time, error) {
	return ParseDate(c.Query(name), loc)
}

// ParseDate returns nil for blank input.
func ParseDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return nil, apperror.Validation("dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}
