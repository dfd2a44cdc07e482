package service

import (
	"testing"

	"fulfillment-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStations(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Grill", Categories: []int64{10, 11}},
		{ID: 2, Name: "Fryer", Categories: []int64{12}},
		{ID: 3, Name: "Drinks", Categories: []int64{20}},
	}

	items := []models.OrderItem{
		{MenuItemID: 100, CategoryID: 10, Quantity: 2},
		{MenuItemID: 200, CategoryID: 20, Quantity: 1},
	}

	routed := ComputeStations(items, stations)
	require.Len(t, routed, 2)
	assert.Equal(t, int64(1), routed[0].ID)
	assert.Equal(t, int64(3), routed[1].ID)
}

func TestComputeStationsIgnoresZeroQuantity(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Grill", Categories: []int64{10}},
		{ID: 2, Name: "Drinks", Categories: []int64{20}},
	}

	items := []models.OrderItem{
		{MenuItemID: 100, CategoryID: 10, Quantity: 1},
		{MenuItemID: 200, CategoryID: 20, Quantity: 0},
	}

	routed := ComputeStations(items, stations)
	require.Len(t, routed, 1)
	assert.Equal(t, "Grill", routed[0].Name)
}

func TestComputeStationsNoOverlap(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Grill", Categories: []int64{10}},
	}

	items := []models.OrderItem{
		{MenuItemID: 300, CategoryID: 99, Quantity: 1},
	}

	assert.Empty(t, ComputeStations(items, stations))
}

func TestComputeStationsDedupes(t *testing.T) {
	// A station serving two categories appears once even when the order
	// has items in both.
	stations := []models.Station{
		{ID: 1, Name: "Grill", Categories: []int64{10, 11}},
	}

	items := []models.OrderItem{
		{MenuItemID: 100, CategoryID: 10, Quantity: 1},
		{MenuItemID: 101, CategoryID: 11, Quantity: 1},
	}

	assert.Len(t, ComputeStations(items, stations), 1)
}

func TestItemsForStation(t *testing.T) {
	station := &models.Station{ID: 1, Name: "Grill", Categories: []int64{10}}

	items := []models.OrderItem{
		{ID: 1, CategoryID: 10, Quantity: 2},
		{ID: 2, CategoryID: 20, Quantity: 1},
		{ID: 3, CategoryID: 10, Quantity: 0},
	}

	mine := ItemsForStation(items, station)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].ID)
}
