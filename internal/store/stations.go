package store

import (
	"context"
	"database/sql"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetArea retrieves an area by ID
func (s *Store) GetArea(ctx context.Context, id int64) (*models.Area, error) {
	var area models.Area
	err := s.db.GetContext(ctx, &area, "SELECT * FROM areas WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "area", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &area, nil
}

// GetPrinter retrieves a printer by ID
func (s *Store) GetPrinter(ctx context.Context, id int64) (*models.Printer, error) {
	var printer models.Printer
	err := s.db.GetContext(ctx, &printer, "SELECT * FROM printers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "printer", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &printer, nil
}

// GetStation retrieves a station with its category assignments
func (s *Store) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	var station models.Station
	err := s.db.GetContext(ctx, &station,
		"SELECT id, area_id, name, printer_id FROM stations WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "station", ID: id}
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &station.Categories,
		"SELECT category_id FROM station_categories WHERE station_id = $1", id)
	if err != nil {
		return nil, err
	}
	return &station, nil
}

// GetStationsByArea retrieves all stations of an area with their category
// assignments loaded.
func (s *Store) GetStationsByArea(ctx context.Context, areaID int64) ([]models.Station, error) {
	var stations []models.Station
	err := s.db.SelectContext(ctx, &stations,
		"SELECT id, area_id, name, printer_id FROM stations WHERE area_id = $1 ORDER BY id", areaID)
	if err != nil {
		return nil, err
	}

	for i := range stations {
		err = s.db.SelectContext(ctx, &stations[i].Categories,
			"SELECT category_id FROM station_categories WHERE station_id = $1", stations[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return stations, nil
}

// GetMenuItemsByIDs retrieves multiple menu items by IDs
func (s *Store) GetMenuItemsByIDs(ctx context.Context, ids []int64) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM menu_items WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.MenuItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// requiredStationsTx computes the set of stations the order must pass
// through: stations of the order's area serving the category of at least
// one positive-quantity item. Runs inside the caller's transaction so the
// set is read consistently with the order row lock.
func requiredStationsTx(ctx context.Context, tx *sqlx.Tx, orderID, areaID int64) ([]int64, error) {
	var stationIDs []int64
	err := tx.SelectContext(ctx, &stationIDs, `
		SELECT DISTINCT sc.station_id
		FROM order_items oi
		JOIN station_categories sc ON sc.category_id = oi.category_id
		JOIN stations st ON st.id = sc.station_id
		WHERE oi.order_id = $1 AND oi.quantity > 0 AND st.area_id = $2
		ORDER BY sc.station_id`, orderID, areaID)
	return stationIDs, err
}
