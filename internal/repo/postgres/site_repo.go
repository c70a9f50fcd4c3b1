package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GratiaManullang03/hris-attandance/internal/domain/model"
)

var ErrSiteNotFound = errors.New("site not found")

type SiteRepo struct {
	pool *pgxpool.Pool
}

func NewSiteRepo(pool *pgxpool.Pool) *SiteRepo {
	return &SiteRepo{pool: pool}
}

func (r *SiteRepo) GetByID(ctx context.Context, siteID string) (model.Site, error) {
	if strings.TrimSpace(siteID) == "" {
		return model.Site{}, fmt.Errorf("site id is required")
	}
	if r.pool == nil {
		return model.Site{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		site     model.Site
		fenceRaw []byte
	)
	err := r.pool.QueryRow(ctx, `
SELECT si_id, si_name, si_geo_fence, si_created_at, si_updated_at
FROM sites
WHERE si_id = $1
`, siteID).Scan(
		&site.ID,
		&site.Name,
		&fenceRaw,
		&site.CreatedAt,
		&site.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Site{}, ErrSiteNotFound
		}
		return model.Site{}, fmt.Errorf("get site by id: %w", err)
	}

	fence, err := decodeGeofence(fenceRaw)
	if err != nil {
		return model.Site{}, fmt.Errorf("site %s: %w", siteID, err)
	}
	site.Geofence = fence

	return site, nil
}

func (r *SiteRepo) Exists(ctx context.Context, siteID string) (bool, error) {
	if strings.TrimSpace(siteID) == "" {
		return false, fmt.Errorf("site id is required")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM sites WHERE si_id = $1)
`, siteID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check site exists: %w", err)
	}

	return exists, nil
}

func (r *SiteRepo) List(ctx context.Context, limit, offset int) ([]model.Site, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT si_id, si_name, si_geo_fence, si_created_at, si_updated_at
FROM sites
ORDER BY si_id
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]model.Site, 0, limit)
	for rows.Next() {
		var (
			site     model.Site
			fenceRaw []byte
		)
		if err := rows.Scan(&site.ID, &site.Name, &fenceRaw, &site.CreatedAt, &site.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan site row: %w", err)
		}
		fence, err := decodeGeofence(fenceRaw)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.ID, err)
		}
		site.Geofence = fence
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site rows: %w", err)
	}

	return sites, nil
}

func decodeGeofence(raw []byte) (*model.Geofence, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var fence model.Geofence
	if err := json.Unmarshal(raw, &fence); err != nil {
		return nil, fmt.Errorf("decode geofence json: %w", err)
	}
	return &fence, nil
}
