package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/overland/internal/core/domain"
	"github.com/samirrijal/overland/internal/core/ports"
	"github.com/samirrijal/overland/internal/pkg/geospatial"
	"github.com/samirrijal/overland/internal/pkg/metrics"
)

const providerName = "catalog"

// CampsiteRepo implements ports.CampsiteProvider over a PostGIS campsite table.
type CampsiteRepo struct {
	db *DB
}

// NewCampsiteRepo creates a new CampsiteRepo.
func NewCampsiteRepo(db *DB) *CampsiteRepo {
	return &CampsiteRepo{db: db}
}

func (r *CampsiteRepo) Name() string { return providerName }

const upsertCampsite = `
	INSERT INTO campsites (id, name, location, category, amenities, elevation, rating,
	                       cell_service, difficulty, vehicle_accessible, source,
	                       description, reservation_url, phone)
	VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8,
	        NULLIF($9, ''), NULLIF($10, ''), $11, $12, NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''))
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, location = EXCLUDED.location, category = EXCLUDED.category,
	    amenities = EXCLUDED.amenities, elevation = EXCLUDED.elevation, rating = EXCLUDED.rating,
	    cell_service = EXCLUDED.cell_service, difficulty = EXCLUDED.difficulty,
	    vehicle_accessible = EXCLUDED.vehicle_accessible, source = EXCLUDED.source,
	    description = EXCLUDED.description, reservation_url = EXCLUDED.reservation_url,
	    phone = EXCLUDED.phone, updated_at = now()
`

func upsertArgs(c *domain.Campsite) []any {
	amenities := c.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return []any{
		c.ID, c.Name, c.Location.Lon, c.Location.Lat, string(c.Category), amenities,
		c.Elevation, c.Rating, c.CellService, c.Difficulty, c.VehicleAccessible, c.Source,
		c.Description, c.ReservationURL, c.Phone,
	}
}

// Upsert inserts or updates a single campsite.
func (r *CampsiteRepo) Upsert(ctx context.Context, c *domain.Campsite) error {
	_, err := r.db.Pool.Exec(ctx, upsertCampsite, upsertArgs(c)...)
	return err
}

// UpsertBatch inserts many campsites using pgx.Batch.
func (r *CampsiteRepo) UpsertBatch(ctx context.Context, sites []domain.Campsite) error {
	batch := &pgx.Batch{}
	for i := range sites {
		batch.Queue(upsertCampsite, upsertArgs(&sites[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range sites {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

const selectCampsite = `
	SELECT id, name,
	       ST_Y(location::geometry) AS lat,
	       ST_X(location::geometry) AS lon,
	       category, amenities, elevation, rating,
	       COALESCE(cell_service, ''), COALESCE(difficulty, ''),
	       vehicle_accessible, source,
	       COALESCE(description, ''), COALESCE(reservation_url, ''), COALESCE(phone, '')`

// GetByID returns a campsite by id or domain.ErrNotFound.
func (r *CampsiteRepo) GetByID(ctx context.Context, id string) (*domain.Campsite, error) {
	row := r.db.Pool.QueryRow(ctx, selectCampsite+`, 0::float8 AS distance
		FROM campsites WHERE id = $1`, id)

	c, err := scanCampsite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campsite %s: %w", id, err)
	}
	return c, nil
}

// Search returns campsites within q.RadiusMiles of q.Center, nearest first,
// using PostGIS ST_DWithin on the geography column.
func (r *CampsiteRepo) Search(ctx context.Context, q ports.CampsiteQuery) ([]domain.Campsite, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	began := time.Now()
	rows, err := r.db.Pool.Query(ctx, selectCampsite+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM campsites
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, q.Center.Lon, q.Center.Lat, geospatial.MilesToMeters(q.RadiusMiles), limit)
	if err != nil {
		metrics.ObserveProvider(providerName, began, err)
		return nil, fmt.Errorf("search campsites: %w", err)
	}
	defer rows.Close()

	var sites []domain.Campsite
	for rows.Next() {
		c, err := scanCampsite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *c)
	}
	err = rows.Err()
	metrics.ObserveProvider(providerName, began, err)
	return sites, err
}

func scanCampsite(row pgx.Row) (*domain.Campsite, error) {
	var (
		c        domain.Campsite
		category string
		meters   float64
	)
	if err := row.Scan(
		&c.ID, &c.Name,
		&c.Location.Lat, &c.Location.Lon,
		&category, &c.Amenities, &c.Elevation, &c.Rating,
		&c.CellService, &c.Difficulty,
		&c.VehicleAccessible, &c.Source,
		&c.Description, &c.ReservationURL, &c.Phone,
		&meters,
	); err != nil {
		return nil, err
	}
	c.Category = domain.CampsiteCategory(category)
	c.DistanceMiles = geospatial.MetersToMiles(meters)
	return &c, nil
}
