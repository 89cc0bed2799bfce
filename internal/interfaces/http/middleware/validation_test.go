package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testVehicleRequest struct {
	VRM   string `json:"vrm" binding:"required,vrm"`
	Notes string `json:"notes" binding:"max=5"`
	Items []struct {
		VRM string `json:"vrm" binding:"required,vrm"`
	} `json:"items" binding:"dive"`
}

func TestSetupValidator(t *testing.T) {
	require.NoError(t, SetupValidator())

	var details []string
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req testVehicleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			details = details[:0]
			for _, d := range ValidationDetails(err) {
				details = append(details, d.Field+": "+d.Message)
			}
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body)))
		return w.Code
	}

	t.Run("accepts registrations in any spacing and case", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post(`{"vrm":"ab12 cde"}`))
		assert.Equal(t, http.StatusOK, post(`{"vrm":"AB12CDE","items":[{"vrm":"x1"}]}`))
	})

	t.Run("reports json field paths", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(`{"vrm":"not a plate!","notes":"too long","items":[{"vrm":""}]}`))
		assert.ElementsMatch(t, []string{
			"vrm: Invalid vehicle registration",
			"notes: Must be at most 5 characters",
			"items[0].vrm: This field is required",
		}, details)
	})
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
