package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

func TestRespondErrorStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "not found",
			err:      entities.NotFoundError("material %s not found", "RM-001"),
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"material RM-001 not found"}`,
		},
		{
			name:     "validation",
			err:      entities.ValidationError("quantity must be positive"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"quantity must be positive"}`,
		},
		{
			name:     "blocked change",
			err:      entities.BlockedError("change rejected: order is completed"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"change rejected: order is completed"}`,
		},
		{
			name:     "conflict",
			err:      entities.ConflictError("order %s is already released", "PO123"),
			wantCode: http.StatusConflict,
			wantBody: `{"error":"order PO123 is already released"}`,
		},
		{
			name:     "internal details are not leaked",
			err:      entities.InternalError(errors.New("connection reset"), "query failed"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
		},
		{
			name:     "unclassified error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
