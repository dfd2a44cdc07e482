package printer

import (
	"testing"

	"fulfillment-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRenderReceipt(t *testing.T) {
	r := NewTextRenderer()

	order := &models.Order{
		ID:            42,
		DisplayNumber: strPtr("BAR-014"),
		CustomerName:  "Ana",
		TotalAmount:   2500,
	}
	items := []models.OrderItem{
		{MenuItemID: 1, Quantity: 2, UnitPrice: 1000},
		{MenuItemID: 2, Quantity: 1, UnitPrice: 500},
	}

	out, err := r.RenderReceipt(order, items)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "ORDER BAR-014")
	assert.Contains(t, text, "Customer: Ana")
	assert.Contains(t, text, "25.00")
}

func TestRenderReceiptWithoutDisplayNumber(t *testing.T) {
	r := NewTextRenderer()

	out, err := r.RenderReceipt(&models.Order{ID: 42}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "ORDER #42")
}

func TestRenderKitchenTicket(t *testing.T) {
	r := NewTextRenderer()

	order := &models.Order{
		ID:            42,
		DisplayNumber: strPtr("BAR-014"),
		TableNumber:   "12",
	}
	items := []models.OrderItem{
		{MenuItemID: 1, Quantity: 2, Notes: "no onions"},
	}

	out, err := r.RenderKitchenTicket(order, items, "Grill")
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "*** Grill ***")
	assert.Contains(t, text, "ORDER BAR-014")
	assert.Contains(t, text, "Table: 12")
	assert.Contains(t, text, "no onions")
}

func TestRenderTest(t *testing.T) {
	r := NewTextRenderer()

	out, err := r.RenderTest("Bar front")
	require.NoError(t, err)
	assert.Contains(t, string(out), "TEST PRINT Bar front")
}
