package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestTenantCodeValidation(t *testing.T) {
	SetupValidator()
	gin.SetMode(gin.TestMode)

	type signupBody struct {
		Code string `json:"code" binding:"required,tenantcode"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req signupBody
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "invalid")
			return
		}
		c.String(http.StatusOK, req.Code)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("accepts valid codes", func(t *testing.T) {
		for _, code := range []string{"acme", "acme-west-2", "Shop99"} {
			w := post(`{"code": "` + code + `"}`)
			assert.Equal(t, http.StatusOK, w.Code, code)
		}
	})

	t.Run("rejects invalid codes", func(t *testing.T) {
		for _, code := range []string{"a", "has space", "shop_one", "shop.example", strings.Repeat("x", 51)} {
			w := post(`{"code": "` + code + `"}`)
			assert.Equal(t, http.StatusBadRequest, w.Code, code)
		}
	})
}

func TestIsTenantCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"acme", true},
		{"acme-west", true},
		{"AB", true},
		{"42", true},
		{"a", false},
		{"", false},
		{"has space", false},
		{"shop_one", false},
		{"shop!", false},
		{strings.Repeat("x", 50), true},
		{strings.Repeat("x", 51), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isTenantCode(tt.code), "code %q", tt.code)
	}
}
