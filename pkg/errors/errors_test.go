package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorFormat(t *testing.T) {
	e := New(ErrCodeInternal, "something broke")
	assert.Equal(t, "[COMMON_001] something broke", e.Error())

	withDetail := e.WithDetail("session=abc")
	assert.Equal(t, "[COMMON_001] something broke: session=abc", withDetail.Error())
	// Original untouched.
	assert.Empty(t, e.Detail)
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeNetwork, "ignored"))
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := Validation("bad filter")
	wrapped := Wrap(inner, CodeUnknown, "while building request")
	assert.Equal(t, ErrCodeValidation, wrapped.Code)
}

func TestWrap_UnwrapChain(t *testing.T) {
	base := fmt.Errorf("connection refused")
	wrapped := Wrap(base, ErrCodeNetwork, "shipments query failed")
	require.ErrorIs(t, wrapped, base)
	assert.Equal(t, ErrCodeNetwork, GetCode(wrapped))
}

func TestNetwork_CarriesStatusAndBody(t *testing.T) {
	e := Network(503, "upstream unavailable")
	assert.Equal(t, 503, e.Status)
	assert.Contains(t, e.Error(), "HTTP 503")
	assert.Contains(t, e.Error(), "upstream unavailable")
	assert.True(t, IsNetwork(e))
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(Canceled("superseded")))
	assert.True(t, IsCanceled(fmt.Errorf("fetch: %w", context.Canceled)))
	assert.False(t, IsCanceled(Network(500, "")))
	assert.False(t, IsCanceled(nil))
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := Canceled("superseded")
	outer := Wrap(inner, ErrCodeInternal, "apply failed")
	assert.True(t, IsCode(outer, ErrCodeCanceled))
	assert.False(t, IsCode(outer, ErrCodeNetwork))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain")))
	assert.Equal(t, ErrCodeValidation, GetCode(Validation("x")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(ErrCodeValidation))
	assert.Equal(t, 404, HTTPStatus(ErrCodeSessionNotFound))
	assert.Equal(t, 502, HTTPStatus(ErrCodeNetwork))
	assert.Equal(t, 503, HTTPStatus(ErrCodeRefDataUnavailable))
	assert.Equal(t, 500, HTTPStatus(ErrCodeInternal))
	assert.Equal(t, 500, HTTPStatus(ErrorCode("WHATEVER_999")))
}
