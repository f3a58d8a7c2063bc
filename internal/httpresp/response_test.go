package httpresp_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, httpresp.Result) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", h)

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var res httpresp.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w, res
}

func TestFail_InsufficientStockCarriesShortfalls(t *testing.T) {
	w, res := serve(t, func(c *gin.Context) {
		err := apperr.InsufficientStock([]apperr.Shortfall{{Category: "sillas", ProductID: 2, Requested: 10, Available: 3, Missing: 7}})
		httpresp.Fail(c, fmt.Errorf("confirm: %w", err))
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, res.Success)
	assert.Equal(t, apperr.KindInsufficientStock, res.Kind)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, 7, res.Shortfalls[0].Missing)
}

func TestFail_InternalErrorHidesDetails(t *testing.T) {
	w, res := serve(t, func(c *gin.Context) {
		httpresp.Fail(c, errors.New("pq: connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", res.ErrorMessage)
}

func TestOK(t *testing.T) {
	w, res := serve(t, func(c *gin.Context) {
		httpresp.OK(c, gin.H{"id": 1})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, res.Success)
	assert.Empty(t, res.ErrorMessage)
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindNotFound:         http.StatusNotFound,
		apperr.KindForbidden:        http.StatusForbidden,
		apperr.KindInvalidState:     http.StatusConflict,
		apperr.KindAlreadyConfirmed: http.StatusConflict,
		apperr.KindMalformedCart:    http.StatusUnprocessableEntity,
		apperr.KindValidation:       http.StatusBadRequest,
		apperr.KindInternal:         http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, httpresp.StatusFor(kind), kind)
	}
}
