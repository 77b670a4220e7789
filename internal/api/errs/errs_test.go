package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrCode
		want int
	}{
		{InvalidArgument, http.StatusBadRequest},
		{Unauthenticated, http.StatusUnauthorized},
		{NotFound, http.StatusNotFound},
		{FailedPrecondition, http.StatusConflict},
		{ResourceExhausted, http.StatusTooManyRequests},
		{Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, errors.New("boom")).HTTPStatus())
		})
	}
}

func TestErrorEncode(t *testing.T) {
	data, contentType, err := Newf(NotFound, "scan %s not found", "abc").Encode()
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"code":"not_found","message":"scan abc not found"}`, string(data))
}

func TestGetError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", New(Internal, errors.New("db down")))
	assert.True(t, IsError(wrapped))
	assert.Equal(t, Internal, GetError(wrapped).Code)
	assert.Nil(t, GetError(errors.New("plain")))
}

type createRequest struct {
	ScanType   string   `validate:"required,oneof=quick full custom"`
	Categories []string `validate:"required_if=ScanType custom"`
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(createRequest{ScanType: "full"}))

	err := Check(createRequest{ScanType: "deep"})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "ScanType", fields[0].Field)
	assert.Contains(t, fields[0].Err, "must be one of")

	err = Check(createRequest{ScanType: "custom"})
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "Categories", fields[0].Field)
}
