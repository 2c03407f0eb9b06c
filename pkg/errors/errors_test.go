package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New(ErrCodeModelInfeasible, "model infeasible for group")
	assert.Equal(t, "[MOD_001] model infeasible for group", e.Error())

	e = e.WithDetail("prefix=GT1 anchors=1")
	assert.Equal(t, "[MOD_001] model infeasible for group: prefix=GT1 anchors=1", e.Error())
}

func TestAppError_WithDetailNilReceiver(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.WithDetail("ignored"))
	assert.Nil(t, e.WithCause(stderrors.New("ignored")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "never constructed"))

	cause := stderrors.New("disk read failed")
	e := Wrap(cause, ErrCodeTableReadFailed, "failed to read CSV")
	assert.Equal(t, ErrCodeTableReadFailed, e.Code)
	assert.ErrorIs(t, e, cause)
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := New(ErrCodeNoLogPVariation, "one distinct Log P")
	outer := Wrap(inner, CodeUnknown, "fit failed")
	assert.Equal(t, ErrCodeNoLogPVariation, outer.Code)
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeSingularMatrix, "singular")
	outer := fmt.Errorf("level L2: %w", inner)
	assert.True(t, IsCode(outer, ErrCodeSingularMatrix))
	assert.False(t, IsCode(outer, ErrCodeDropRateExceeded))
	assert.False(t, IsCode(nil, ErrCodeSingularMatrix))
}

func TestIsInfeasible(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no_logp_variation", NewCode(ErrCodeNoLogPVariation), true},
		{"insufficient_sample", NewCode(ErrCodeInsufficientSample), true},
		{"model_infeasible_wrapped", fmt.Errorf("ctx: %w", NewCode(ErrCodeModelInfeasible)), true},
		{"singular_is_numerical_not_infeasible", NewCode(ErrCodeSingularMatrix), false},
		{"foreign_error", stderrors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInfeasible(tt.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeEmptyTable, GetCode(NewCode(ErrCodeEmptyTable)))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "MOD", ModuleForCode(ErrCodeSingularMatrix))
	assert.Equal(t, "ING", ModuleForCode(ErrCodeDropRateExceeded))
	assert.Equal(t, "CFG", ModuleForCode(ErrCodeConfigInvalid))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "feature matrix is singular", DefaultMessageForCode(ErrCodeSingularMatrix))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}
