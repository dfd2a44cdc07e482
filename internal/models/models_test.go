package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDisplayNumber(t *testing.T) {
	assert.Equal(t, "BAR-001", FormatDisplayNumber("BAR", 1))
	assert.Equal(t, "BAR-014", FormatDisplayNumber("BAR", 14))
	assert.Equal(t, "GRILL-999", FormatDisplayNumber("GRILL", 999))

	// Numbers wider than the pad keep all digits.
	assert.Equal(t, "BAR-1042", FormatDisplayNumber("BAR", 1042))
}

func TestOrderIsTerminal(t *testing.T) {
	for _, status := range []string{
		OrderStatusPreOrder,
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusPreparing,
		OrderStatusReady,
	} {
		o := &Order{Status: status}
		assert.False(t, o.IsTerminal(), status)
	}

	assert.True(t, (&Order{Status: OrderStatusCompleted}).IsTerminal())
	assert.True(t, (&Order{Status: OrderStatusCancelled}).IsTerminal())
}

func TestDispatchErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DispatchError{PrinterAddr: "10.0.0.5:9100", Err: cause}

	assert.ErrorIs(t, err, cause)

	var de *DispatchError
	assert.True(t, errors.As(error(err), &de))
	assert.Equal(t, "10.0.0.5:9100", de.PrinterAddr)
}
