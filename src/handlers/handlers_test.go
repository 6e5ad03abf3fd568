package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/bundlefolio/backend/src/logger"
	"github.com/username/bundlefolio/backend/src/models"
	"github.com/username/bundlefolio/backend/src/security/validation"
	"github.com/username/bundlefolio/backend/src/services"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestHandleConvertTargetIncome(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/target-income/convert?unit=monthly&value=75", nil)
	rec := httptest.NewRecorder()

	HandleConvertTargetIncome(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var target models.TargetIncome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&target))
	assert.Equal(t, 2.46, target.Daily)
	assert.Equal(t, 75.0, target.Monthly)
	assert.Equal(t, 900.0, target.Yearly)
}

func TestHandleConvertTargetIncomeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing unit", "value=75"},
		{"unknown unit", "unit=weekly&value=75"},
		{"missing value", "unit=monthly"},
		{"negative value", "unit=monthly&value=-5"},
		{"non numeric value", "unit=monthly&value=abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/target-income/convert?"+tc.query, nil)
			rec := httptest.NewRecorder()
			HandleConvertTargetIncome(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTargetFromQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/bundles/1/summary?yearly=1200", nil)
	target := targetFromQuery(req)
	assert.Equal(t, 1200.0, target.Yearly)
	assert.Equal(t, 100.0, target.Monthly)

	// Yearly wins when several units are present.
	req = httptest.NewRequest("GET", "/api/bundles/1/summary?monthly=50&yearly=1200", nil)
	assert.Equal(t, 1200.0, targetFromQuery(req).Yearly)

	// No target at all collapses to zero.
	req = httptest.NewRequest("GET", "/api/bundles/1/summary", nil)
	assert.Equal(t, models.TargetIncome{}, targetFromQuery(req))
}

func TestBundleServiceErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, bundleServiceErrorStatus(services.ErrAllocationNot100))
	assert.Equal(t, http.StatusBadRequest, bundleServiceErrorStatus(validation.ErrValidationFailed))
	assert.Equal(t, http.StatusBadRequest, bundleServiceErrorStatus(services.ErrEmptyBundle))
	assert.Equal(t, http.StatusConflict, bundleServiceErrorStatus(services.ErrBundleLimitReached))
	assert.Equal(t, http.StatusNotFound, bundleServiceErrorStatus(services.ErrSymbolNotFound))
	assert.Equal(t, http.StatusInternalServerError, bundleServiceErrorStatus(errors.New("boom")))
}

func TestCSRFMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := CSRFMiddleware([]byte("test-key"))(ok)

	t.Run("safe methods pass through", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/bundles", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("post without token is rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/bundles", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("post with matching header and cookie passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/bundles", nil)
		req.Header.Set("X-CSRF-Token", "tok-123")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok-123"})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("post with mismatched header is rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/bundles", nil)
		req.Header.Set("X-CSRF-Token", "tok-123")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "other"})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
