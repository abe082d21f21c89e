package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentityByCode(t *testing.T) {
	clone := Clone(ErrInvalidStateForEdit, "record R1 is locked")
	require.Equal(t, "record R1 is locked", clone.Message)
	assert.True(t, errors.Is(clone, ErrInvalidStateForEdit))
	assert.False(t, errors.Is(clone, ErrNoApprovedRequest))

	wrapped := fmt.Errorf("perform edit: %w", clone)
	assert.True(t, errors.Is(wrapped, ErrInvalidStateForEdit))
	assert.True(t, IsInvalidState(wrapped))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCategories(t *testing.T) {
	assert.True(t, IsNotFound(Clone(ErrRecordNotFound, "")))
	assert.True(t, IsNotFound(ErrRequestNotFound))
	assert.False(t, IsNotFound(ErrDuplicateUsername))
	assert.False(t, IsInvalidState(ErrDuplicateChassis))
}
