package autoprocess

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/finance/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest() *mux.Router {
	handler := NewHandler(NewService(NewRepositoryStub()))
	router := mux.NewRouter()
	router.HandleFunc("/api/recurring/settings", handler.GetSettings).Methods("GET")
	router.HandleFunc("/api/recurring/settings", handler.UpdateSettings).Methods("PUT")
	return router
}

func TestHandler_Settings(t *testing.T) {
	t.Run("should return defaults", func(t *testing.T) {
		router := setupHandlerTest()
		req := httptest.NewRequest("GET", "/api/recurring/settings", nil).WithContext(test_utils.TestUserContext())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body SettingsDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.False(t, body.Enabled)
		assert.Equal(t, "09:00", body.ProcessingTime)
		assert.Equal(t, []string{}, body.ExcludeCategories)
	})

	t.Run("should reject invalid processing time", func(t *testing.T) {
		router := setupHandlerTest()
		payload := []byte(`{"enabled":true,"maxAmount":"100","processingTime":"9am"}`)
		req := httptest.NewRequest("PUT", "/api/recurring/settings", bytes.NewReader(payload)).WithContext(test_utils.TestUserContext())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("should keep fields missing from the body", func(t *testing.T) {
		router := setupHandlerTest()
		first := []byte(`{"autoProcessExpenses":true,"maxAmount":"250","excludeCategories":["Fun"],"processingTime":"07:30"}`)
		req := httptest.NewRequest("PUT", "/api/recurring/settings", bytes.NewReader(first)).WithContext(test_utils.TestUserContext())
		router.ServeHTTP(httptest.NewRecorder(), req)

		req = httptest.NewRequest("PUT", "/api/recurring/settings", bytes.NewReader([]byte(`{"enabled":true}`))).WithContext(test_utils.TestUserContext())
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body SettingsDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Enabled)
		assert.True(t, body.AutoProcessIncome)
		assert.True(t, body.AutoProcessExpenses)
		assert.Equal(t, "250", body.MaxAmount.String())
		assert.Equal(t, []string{"Fun"}, body.ExcludeCategories)
		assert.Equal(t, "07:30", body.ProcessingTime)
	})

	t.Run("should fill a first partial update with defaults", func(t *testing.T) {
		router := setupHandlerTest()
		req := httptest.NewRequest("PUT", "/api/recurring/settings", bytes.NewReader([]byte(`{"enabled":true}`))).WithContext(test_utils.TestUserContext())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body SettingsDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Enabled)
		assert.True(t, body.AutoProcessIncome)
		assert.Equal(t, "10000", body.MaxAmount.String())
		assert.Equal(t, "09:00", body.ProcessingTime)
	})

	t.Run("should replace settings", func(t *testing.T) {
		router := setupHandlerTest()
		payload := []byte(`{"enabled":true,"autoProcessExpenses":true,"maxAmount":"500","excludeCategories":["Fun"],"processingTime":"07:30"}`)
		req := httptest.NewRequest("PUT", "/api/recurring/settings", bytes.NewReader(payload)).WithContext(test_utils.TestUserContext())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body SettingsDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Enabled)
		assert.True(t, body.AutoProcessExpenses)
		assert.Equal(t, "07:30", body.ProcessingTime)
		assert.Equal(t, []string{"Fun"}, body.ExcludeCategories)
	})
}
