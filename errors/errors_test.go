package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.String())
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"register read", ErrRegisterRead, true},
		{"register write wrapped", fmt.Errorf("cycle: %w", ErrRegisterWrite), true},
		{"bind failure", ErrBindFailed, true},
		{"connection lost", ErrConnectionLost, true},
		{"invalid profile", ErrInvalidProfile, false},
		{"bus pattern", New("i2c bus stuck"), true},
		{"classified transient", WrapTransient(New("boom"), "regio", "Read", "read 0x58"), true},
		{"classified invalid", WrapInvalid(New("boom"), "board", "Validate", "item check"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsInvalid(t *testing.T) {
	assert.True(t, IsInvalid(ErrInvalidProfile))
	assert.True(t, IsInvalid(ErrNoSlotForBit))
	assert.True(t, IsInvalid(fmt.Errorf("arm: %w", ErrUnknownBoard)))
	assert.False(t, IsInvalid(ErrRegisterRead))
	assert.False(t, IsInvalid(nil))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorInvalid, Classify(ErrInvalidConfig))
	assert.Equal(t, ErrorTransient, Classify(ErrRegisterRead))
	assert.Equal(t, ErrorTransient, Classify(New("something else")))
	assert.Equal(t, ErrorFatal, Classify(WrapFatal(New("boom"), "x", "y", "z")))
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	base := New("underlying")
	wrapped := WrapTransient(base, "hotplug", "runCycle", "aggregation read")
	require.Error(t, wrapped)

	var ce *ClassifiedError
	require.True(t, As(wrapped, &ce))
	assert.Equal(t, "hotplug", ce.Component)
	assert.Equal(t, "runCycle", ce.Operation)
	assert.True(t, Is(wrapped, base))
	assert.Contains(t, wrapped.Error(), "aggregation read failed")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "a", "b", "c"))
	assert.NoError(t, WrapTransient(nil, "a", "b", "c"))
	assert.NoError(t, WrapInvalid(nil, "a", "b", "c"))
	assert.NoError(t, WrapFatal(nil, "a", "b", "c"))
}

func TestWrapFormat(t *testing.T) {
	err := Wrap(New("no such address"), "regio", "Read", "lookup")
	assert.Equal(t, "regio.Read: lookup failed: no such address", err.Error())
}
