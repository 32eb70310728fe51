package request

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleBody struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=in out adjust"`
}

func TestBind(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			fe := apperror.ToFiber(err)
			return c.Status(fe.Code).SendString(fe.Message)
		},
	})
	app.Post("/", func(c *fiber.Ctx) error {
		var body sampleBody
		if err := Bind(c, &body); err != nil {
			return err
		}
		return c.SendString(body.Name + "/" + body.Kind)
	})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"valid", `{"name":"bolt","kind":"in"}`, fiber.StatusOK},
		{"missing name", `{"kind":"in"}`, fiber.StatusBadRequest},
		{"bad kind", `{"name":"bolt","kind":"move"}`, fiber.StatusBadRequest},
		{"broken json", `{"name":`, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestValidateDescribesFields(t *testing.T) {
	err := Validate(&sampleBody{Kind: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "invalid fields: kind: oneof=in out adjust, name: required", err.Error())
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	d, err := ParseDate("2024-03-01", loc)
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, loc, d.Location())

	d, err = ParseDate("  ", loc)
	assert.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("01/03/2024", loc)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}
