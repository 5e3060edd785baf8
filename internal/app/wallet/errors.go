package wallet

import (
	"errors"
	"net/http"

	"voxelworld-economy/internal/ledger"
	"voxelworld-economy/internal/store"
)

var ErrInvalidRequest = errors.New("invalid_request")

func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
