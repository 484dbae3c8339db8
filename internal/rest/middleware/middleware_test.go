package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexprice/billingcore/internal/config"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.GetDefaultConfig()
	log := logger.NewNoopLogger()

	r := gin.New()
	r.Use(RequestIDMiddleware, TenantMiddleware, ErrorHandler(log, sentry.NewSentryService(cfg, log)))
	return r
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
		expectedDetail string
	}{
		{
			name: "validation error uses hint and details",
			err: ierr.NewError("bad input").
				WithHint("New plan ID is required").
				WithReportableDetails(map[string]any{"field": "new_plan_id"}).
				Mark(ierr.ErrValidation),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "New plan ID is required",
			expectedDetail: "new_plan_id",
		},
		{
			name: "billing rejection keeps its status",
			err: ierr.NewError("not eligible").
				WithHint("Subscription is not active").
				Mark(ierr.ErrSubscriptionNotEligible),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedMsg:    "Subscription is not active",
		},
		{
			name:           "unhinted error falls back",
			err:            ierr.NewError("boom").Mark(ierr.ErrSystem),
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine()
			r.GET("/fail", func(c *gin.Context) {
				c.Error(tt.err)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp ierr.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedMsg, resp.Error.Display)
			if tt.expectedDetail != "" {
				assert.Equal(t, tt.expectedDetail, resp.Error.Details["field"])
			}
		})
	}
}

func TestRequestContext(t *testing.T) {
	r := newTestEngine()
	r.GET("/ctx", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"request_id":     types.GetRequestID(ctx),
			"tenant_id":      types.GetTenantID(ctx),
			"environment_id": types.GetEnvironmentID(ctx),
		})
	})

	t.Run("headers are propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
		req.Header.Set(types.HeaderRequestID, "req_1")
		req.Header.Set(types.HeaderTenantID, "tenant_1")
		req.Header.Set(types.HeaderEnvironment, "env_1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "req_1", body["request_id"])
		assert.Equal(t, "tenant_1", body["tenant_id"])
		assert.Equal(t, "env_1", body["environment_id"])
		assert.Equal(t, "req_1", w.Header().Get(types.HeaderRequestID))
	})

	t.Run("defaults are generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ctx", nil))

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body["request_id"])
		assert.Equal(t, types.DefaultTenantID, body["tenant_id"])
		assert.Empty(t, body["environment_id"])
	})
}
