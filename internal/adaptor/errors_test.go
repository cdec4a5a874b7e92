package adaptor

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinema-inventory/internal/usecase"

	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad date", usecase.ErrValidation), http.StatusBadRequest},
		{usecase.ErrBookingNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", usecase.ErrItemNotFound), http.StatusNotFound},
		{&usecase.ItemUnavailableError{Code: "A1"}, http.StatusConflict},
		{&usecase.WindowClosedError{Reason: "closed"}, http.StatusConflict},
		{fmt.Errorf("%w: Screen 1 busy", usecase.ErrGenerationConflict), http.StatusConflict},
		{fmt.Errorf("%w: booking is cancelled", usecase.ErrInvalidState), http.StatusConflict},
		{usecase.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleServiceError(rec, zap.NewNop(), tt.err, "test")
		if rec.Code != tt.status {
			t.Fatalf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}
}
