package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Wealth-Tracker-Backend/internal/validation"
)

// maxUploadBytes bounds the size of a multipart upload.
const maxUploadBytes = 32 << 20

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	response.RespondJSON(w, status, data)
}

// respondServiceError maps an error to its HTTP status and writes an error body.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrMissingFile),
		errors.Is(err, apperrors.ErrUnsupportedBroker),
		errors.Is(err, apperrors.ErrInvalidCSVHeaders),
		errors.Is(err, apperrors.ErrInvalidCurrency),
		errors.Is(err, apperrors.ErrInvalidClass),
		errors.Is(err, apperrors.ErrFailedToParseUpload):
		response.RespondError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, apperrors.ErrFundNotMatched),
		errors.Is(err, apperrors.ErrPriceNotFound):
		response.RespondError(w, http.StatusNotFound, message, err.Error())
	case errors.Is(err, apperrors.ErrFailedToLoadCatalog),
		errors.Is(err, apperrors.ErrFailedToFetchPrice):
		response.RespondError(w, http.StatusBadGateway, message, err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}
