package domain

import (
	"testing"

	"predpraznik_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAtClamps(t *testing.T) {
	a, b, c, x := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	col := []uuid.UUID{a, b, c}

	assert.Equal(t, []uuid.UUID{x, a, b, c}, InsertAt(col, x, -3))
	assert.Equal(t, []uuid.UUID{a, x, b, c}, InsertAt(col, x, 1))
	assert.Equal(t, []uuid.UUID{a, b, c, x}, InsertAt(col, x, 99))
	assert.Equal(t, []uuid.UUID{a, b, c}, col, "input must not be modified")
}

func TestMoveWithinColumn(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	got := InsertAt(Remove([]uuid.UUID{a, b, c}, a), a, 2)
	assert.Equal(t, []uuid.UUID{b, c, a}, got)
}

func TestValidateReorder(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	col := []uuid.UUID{a, b, c}

	require.NoError(t, ValidateReorder([]uuid.UUID{c, a, b}, col))
	assert.True(t, apperr.Is(ValidateReorder([]uuid.UUID{a, b}, col), apperr.KindConflict))
	assert.True(t, apperr.Is(ValidateReorder([]uuid.UUID{a, a, b}, col), apperr.KindValidation))
	assert.True(t, apperr.Is(ValidateReorder([]uuid.UUID{a, b, uuid.New()}, col), apperr.KindConflict))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("needs_help")
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsHelp, s)

	_, err = ParseStatus("blocked")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
