package metrics

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/validate"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// Classify сопоставляет ошибку операции значению метки result.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, storage.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, storage.ErrEmailExists):
		return ResultConflict
	case errors.Is(err, validate.ErrValidation):
		return ResultInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultFailure
	}
}
