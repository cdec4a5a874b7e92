package adaptor

import (
	"errors"
	"net/http"

	"cinema-inventory/internal/usecase"
	"cinema-inventory/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps use case errors to HTTP responses. Anything it
// does not recognise is logged and hidden behind a generic 500.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var unavailable *usecase.ItemUnavailableError

	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &unavailable):
		log.Info(operation+" failed - item unavailable",
			zap.String("code", unavailable.Code),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), map[string]string{"code": unavailable.Code})

	case errors.Is(err, usecase.ErrBookingWindowClosed):
		log.Info(operation+" failed - booking window closed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrGenerationConflict), errors.Is(err, usecase.ErrInvalidState):
		log.Warn(operation+" failed - conflict",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, "You do not have access to this resource")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
