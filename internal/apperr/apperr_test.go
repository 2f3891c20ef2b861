package apperr

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindsAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
	}{
		{Validation("lines are required"), KindValidation, http.StatusBadRequest},
		{Authentication("invalid credentials"), KindAuthentication, http.StatusUnauthorized},
		{NotFound("sale %d not found", 3), KindNotFound, http.StatusNotFound},
		{Conflict("barcode already used"), KindConflict, http.StatusConflict},
		{Storage(stderrors.New("disk"), "insert sale"), KindStorage, http.StatusInternalServerError},
		{stderrors.New("plain"), "", http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, KindOf(c.err))
		assert.Equal(t, c.status, HTTPStatus(c.err))
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := errors.Wrap(NotFound("sale %d not found", 9), "cancel")
	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrValidation))
	assert.Equal(t, "sale 9 not found", Message(err))
}

func TestStorageKeepsExistingKind(t *testing.T) {
	inner := Conflict("category in use")
	assert.Equal(t, KindConflict, KindOf(Storage(inner, "delete category")))
	assert.Nil(t, Storage(nil, "noop"))
}
