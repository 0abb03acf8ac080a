package services

import (
	"context"
	"strconv"
	"strings"

	"review-scraper/models"
	"review-scraper/services/geocode"
	"review-scraper/storage"
	"review-scraper/utils"
)

// GeocodeCompanies appends Latitude and Longitude to a company table, looking
// up each distinct Location once. A failed or empty lookup leaves both cells
// empty; only a cancelled context stops the pass.
func GeocodeCompanies(ctx context.Context, t *storage.Table, resolver *geocode.Resolver, logger *utils.Logger) error {
	if err := t.Require("Location"); err != nil {
		return err
	}
	t.AddColumn("Latitude")
	t.AddColumn("Longitude")

	type coords struct {
		lat, lng string
	}
	seen := make(map[string]coords)
	found, cached, failed := 0, 0, 0

	for i := 0; i < t.Len(); i++ {
		location := strings.TrimSpace(t.Get(i, "Location"))
		if location == "" || location == models.SentinelText {
			continue
		}
		c, ok := seen[location]
		if !ok {
			res, fromCache, err := resolver.Resolve(ctx, location)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("[geocode] %s: %v", location, err)
				failed++
			} else if res.Found {
				c = coords{
					lat: strconv.FormatFloat(res.Lat, 'f', -1, 64),
					lng: strconv.FormatFloat(res.Lng, 'f', -1, 64),
				}
			}
			if fromCache {
				cached++
			}
			seen[location] = c
		}
		if c.lat != "" {
			found++
		}
		t.Set(i, "Latitude", c.lat)
		t.Set(i, "Longitude", c.lng)
	}

	logger.Info("[geocode] %d/%d rows located (%d distinct places, %d from cache, %d failed)",
		found, t.Len(), len(seen), cached, failed)
	return nil
}
