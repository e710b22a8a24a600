package billing

import (
	"github.com/facturio/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// serviceError is the error translation applied at the service boundary.
// Domain errors pass through unchanged so handlers can map their codes;
// anything else is an infrastructure failure whose cause is logged here and
// replaced by ErrInternal, keeping driver details out of API responses.
func serviceError(logger *zap.Logger, operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := shared.IsDomainError(err); ok {
		return err
	}
	logger.Error("operation failed on a non-domain error",
		zap.String("operation", operation),
		zap.Error(err))
	return shared.ErrInternal
}
