package service

import (
	"database/sql"
	"errors"

	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

// storeError maps a repository failure on one record to NOT_FOUND or a retryable STORAGE_ERROR.
func storeError(err error, notFound, failed string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return appErrors.Storage(err, failed)
}
