package httpadapter

import (
	"net/http"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrJobTerminal),
		domain.IsKind(err, domain.ErrMissingOutput),
		domain.IsKind(err, domain.ErrDuplicateResult):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrUploadFailed),
		domain.IsKind(err, domain.ErrSubmissionFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
