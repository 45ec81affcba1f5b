package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind Kind
		code Code
	}{
		{"no rows", fmt.Errorf("find: %w", pgx.ErrNoRows), KindDatabase, CodeNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, KindDatabase, CodeDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, KindDatabase, CodeNotFound},
		{"check", &pgconn.PgError{Code: "23514"}, KindValidation, CodeInvalid},
		{"other pg", &pgconn.PgError{Code: "42P01"}, KindDatabase, CodeQuery},
		{"deadline", context.DeadlineExceeded, KindNetwork, CodeTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			require.NotNil(t, got)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.code, got.Code)
		})
	}

	assert.Nil(t, Classify(errors.New("plain")))
	assert.Nil(t, Classify(nil))
}

func TestWrap_KeepsExistingTag(t *testing.T) {
	orig := New(KindAuth, CodeForbidden, "invite.create", nil)
	wrapped := Wrap("handler", orig)
	assert.Same(t, orig, wrapped)
	assert.True(t, Is(wrapped, KindAuth, CodeForbidden))
}

func TestWrap_DefaultsToQuery(t *testing.T) {
	err := Wrap("employees.find", errors.New("boom"))
	assert.True(t, Is(err, KindDatabase, CodeQuery))
	assert.Contains(t, err.Error(), "employees.find")
	assert.Nil(t, Wrap("noop", nil))
}

func TestUserMessageAndStatus(t *testing.T) {
	err := New(KindDatabase, CodeDuplicate, "", nil)
	assert.Equal(t, "A record with the same details already exists.", UserMessage(err))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))

	timeout := New(KindNetwork, CodeTimeout, "", nil)
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(timeout))

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(errors.New("x")))
}
