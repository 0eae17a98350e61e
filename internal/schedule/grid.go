package schedule

import (
	"time"

	"courtfinder/internal/models"
)

// BuildGrids returns one grid per court for day, ordered like courts. Every
// hour of the window starts free; an hour becomes booked when any interval on
// the court overlaps part of it. Intervals on other days never match.
func BuildGrids(intervals []models.BookingInterval, courts []models.Court, day time.Time, window models.OperatingWindow) []models.AvailabilityGrid {
	grids := make([]models.AvailabilityGrid, 0, len(courts))
	index := make(map[int]int, len(courts))

	for _, c := range courts {
		hours := make(map[int]bool, window.Close-window.Open)
		for _, h := range window.Hours() {
			hours[h] = true
		}
		index[c.ID] = len(grids)
		grids = append(grids, models.AvailabilityGrid{CourtID: c.ID, CourtName: c.Name, Hours: hours})
	}

	y, m, d := day.Date()
	for _, iv := range intervals {
		i, ok := index[iv.CourtID]
		if !ok {
			continue
		}
		for _, h := range window.Hours() {
			bucket := time.Date(y, m, d, h, 0, 0, 0, day.Location())
			if iv.Overlaps(bucket, bucket.Add(time.Hour)) {
				grids[i].Hours[h] = false
			}
		}
	}
	return grids
}
