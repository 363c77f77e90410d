package binder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/chassmon/errors"
)

func TestBusBinderCreateDestroy(t *testing.T) {
	var attached, detached []int

	b := NewBusBinder(BusBinderDeps{
		ShiftNr: 8,
		Attach: func(_ context.Context, bus int, _ Descriptor) error {
			attached = append(attached, bus)
			return nil
		},
		Detach: func(_ context.Context, bus int, _ Descriptor) error {
			detached = append(detached, bus)
			return nil
		},
	})

	desc := Descriptor{Type: "24c32", Addr: 0x51, Bus: 2}

	h, err := b.Create(context.Background(), desc)
	require.NoError(t, err)
	assert.False(t, h.Zero())
	assert.Equal(t, []int{10}, attached, "shift applied to logical bus")
	assert.Equal(t, 1, b.Live())

	require.NoError(t, b.Destroy(context.Background(), h))
	assert.Equal(t, []int{10}, detached)
	assert.Equal(t, 0, b.Live())
}

func TestBusBinderDoubleCreateRejected(t *testing.T) {
	b := NewBusBinder(BusBinderDeps{})
	desc := Descriptor{Type: "dps460", Addr: 0x59, Bus: 3}

	h1, err := b.Create(context.Background(), desc)
	require.NoError(t, err)

	_, err = b.Create(context.Background(), desc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cerrors.ErrAlreadyBound))
	assert.Equal(t, 1, b.Live(), "original binding stays live")

	require.NoError(t, b.Destroy(context.Background(), h1))
	assert.Equal(t, 0, b.Live())
}

func TestBusBinderDestroyIdempotent(t *testing.T) {
	b := NewBusBinder(BusBinderDeps{})
	desc := Descriptor{Type: "24c02", Addr: 0x50, Bus: 1}

	h, err := b.Create(context.Background(), desc)
	require.NoError(t, err)

	require.NoError(t, b.Destroy(context.Background(), h))
	require.NoError(t, b.Destroy(context.Background(), h), "second destroy is a no-op")
	require.NoError(t, b.Destroy(context.Background(), Handle{}), "zero handle is a no-op")
}

func TestBusBinderAttachFailure(t *testing.T) {
	b := NewBusBinder(BusBinderDeps{
		Attach: func(context.Context, int, Descriptor) error {
			return errors.New("bus stuck")
		},
	})

	_, err := b.Create(context.Background(), Descriptor{Type: "24c32", Addr: 0x51, Bus: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cerrors.ErrBindFailed))
	assert.True(t, cerrors.IsTransient(err))
	assert.Equal(t, 0, b.Live(), "failed attach leaves nothing bound")
}

func TestBusBinderNonBindableDescriptor(t *testing.T) {
	b := NewBusBinder(BusBinderDeps{})

	_, err := b.Create(context.Background(), Descriptor{Type: "asic", Bus: -1})
	require.Error(t, err)
	assert.True(t, cerrors.IsInvalid(err))
}

func TestDescriptorKey(t *testing.T) {
	d := Descriptor{Type: "24c32", Addr: 0x51, Bus: 2}
	assert.Equal(t, "24c32@2:0x51", d.Key())
	assert.True(t, d.Bindable())
	assert.False(t, Descriptor{Bus: -1}.Bindable())
}
