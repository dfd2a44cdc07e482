package printer

import (
	"bytes"
	"fmt"
	"time"

	"fulfillment-service/internal/models"
)

// Renderer produces the payload bytes for a print job. The dispatch
// engine treats the result as opaque; richer rendering (ESC/POS, PDF)
// plugs in behind this interface.
type Renderer interface {
	RenderReceipt(order *models.Order, items []models.OrderItem) ([]byte, error)
	RenderKitchenTicket(order *models.Order, items []models.OrderItem, stationName string) ([]byte, error)
	RenderTest(printerName string) ([]byte, error)
}

// TextRenderer renders plain-text documents. Default implementation used
// in wiring; good enough for line printers and log capture.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

func (r *TextRenderer) RenderReceipt(order *models.Order, items []models.OrderItem) ([]byte, error) {
	var buf bytes.Buffer

	if order.DisplayNumber != nil {
		fmt.Fprintf(&buf, "ORDER %s\n", *order.DisplayNumber)
	} else {
		fmt.Fprintf(&buf, "ORDER #%d\n", order.ID)
	}
	if order.CustomerName != "" {
		fmt.Fprintf(&buf, "Customer: %s\n", order.CustomerName)
	}
	buf.WriteString("--------------------------------\n")
	for _, item := range items {
		fmt.Fprintf(&buf, "%2dx item %-6d %10.2f\n", item.Quantity, item.MenuItemID,
			float64(item.UnitPrice*int64(item.Quantity))/100)
	}
	buf.WriteString("--------------------------------\n")
	fmt.Fprintf(&buf, "TOTAL %26.2f\n", float64(order.TotalAmount)/100)
	fmt.Fprintf(&buf, "%s\n", time.Now().Format("2006-01-02 15:04:05"))

	return buf.Bytes(), nil
}

func (r *TextRenderer) RenderKitchenTicket(order *models.Order, items []models.OrderItem, stationName string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "*** %s ***\n", stationName)
	if order.DisplayNumber != nil {
		fmt.Fprintf(&buf, "ORDER %s\n", *order.DisplayNumber)
	} else {
		fmt.Fprintf(&buf, "ORDER #%d\n", order.ID)
	}
	if order.TableNumber != "" {
		fmt.Fprintf(&buf, "Table: %s\n", order.TableNumber)
	}
	buf.WriteString("--------------------------------\n")
	for _, item := range items {
		fmt.Fprintf(&buf, "%2dx item %d\n", item.Quantity, item.MenuItemID)
		if item.Notes != "" {
			fmt.Fprintf(&buf, "    > %s\n", item.Notes)
		}
	}

	return buf.Bytes(), nil
}

func (r *TextRenderer) RenderTest(printerName string) ([]byte, error) {
	return []byte(fmt.Sprintf("TEST PRINT %s %s\n", printerName,
		time.Now().Format("2006-01-02 15:04:05"))), nil
}
