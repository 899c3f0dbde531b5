package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := Storage(sql.ErrConnDone, "failed to list applications")
	got := FromError(wrapped)
	assert.Same(t, wrapped, got)
	assert.True(t, errors.Is(got, sql.ErrConnDone))
	assert.True(t, got.Retryable())

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.False(t, plain.Retryable())

	assert.Nil(t, FromError(nil))
}

func TestCloneMatchesByCode(t *testing.T) {
	notFound := Clone(ErrNotFound, "application not found")
	assert.Equal(t, "application not found", notFound.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.True(t, errors.Is(notFound, ErrNotFound))
	assert.False(t, errors.Is(notFound, ErrForbidden))
}

func TestValidationAndOperationFailed(t *testing.T) {
	v := Validation("step has errors", "email", "phone")
	assert.Equal(t, []string{"email", "phone"}, v.Fields)
	assert.Nil(t, ErrValidation.Fields)

	ids := []string{"a", "b"}
	op := OperationFailed(errors.New("tx aborted"), "delete", ids)
	ids[0] = "changed"
	require.Equal(t, []string{"a", "b"}, op.IDs)
	assert.Equal(t, "delete failed for 2 record(s)", op.Message)
	assert.Contains(t, op.Error(), "tx aborted")

	file := UnsupportedFile("file is empty")
	assert.Equal(t, http.StatusUnsupportedMediaType, file.Status)
	assert.Equal(t, "unsupported file: file is empty", file.Message)
}
