package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/budget/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationErrorResponse(t *testing.T) {
	type reviewInput struct {
		Action        string `json:"action" binding:"required,oneof=APPROVE REJECT"`
		ReviewerNotes string `json:"reviewer_notes" binding:"max=10"`
	}

	SetupValidator()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/review", func(c *gin.Context) {
		var input reviewInput
		if err := c.ShouldBindJSON(&input); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("invalid input yields field details", func(t *testing.T) {
		body := strings.NewReader(`{"action": "DEFER", "reviewer_notes": "way past the limit"}`)
		req := httptest.NewRequest(http.MethodPost, "/review", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)

		// Field names come from the json tags, not the struct fields.
		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "action")
		assert.Contains(t, fields, "reviewer_notes")
	})

	t.Run("valid input passes through", func(t *testing.T) {
		body := strings.NewReader(`{"action": "APPROVE", "reviewer_notes": "ok"}`)
		req := httptest.NewRequest(http.MethodPost, "/review", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Required string `binding:"required"`
		Email    string `binding:"omitempty,email"`
		Min      string `binding:"omitempty,min=5"`
		UUID     string `binding:"omitempty,uuid"`
		OneOf    string `binding:"omitempty,oneof=DRAFT PLANNED"`
	}

	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(input{Email: "nope", Min: "ab", UUID: "nope", OneOf: "OBLIGATED"})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: DRAFT PLANNED",
	}

	validationErrs := err.(validator.ValidationErrors)
	require.Len(t, validationErrs, len(expected))
	for _, e := range validationErrs {
		assert.Equal(t, expected[e.Field()], getValidationMessage(e))
	}
}
