package books

import (
	"github.com/literarylinc/literarylinc/internal/entities"
)

// Stats aggregates reading statistics over the whole catalog.
func (r *Repository) Stats() (*entities.ReadingStats, error) {
	stats := &entities.ReadingStats{
		ByStatus:       make(map[entities.BookStatus]int64),
		ByType:         make(map[entities.BookType]int64),
		FinishedByYear: make(map[int]int64),
	}

	if err := r.db.Model(&entities.Book{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, err
	}

	var statusRows []struct {
		Status entities.BookStatus
		Count  int64
	}
	if err := r.db.Model(&entities.Book{}).Select("status, COUNT(*) AS count").Group("status").Scan(&statusRows).Error; err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Status] = row.Count
	}

	var typeRows []struct {
		Type  entities.BookType
		Count int64
	}
	if err := r.db.Model(&entities.Book{}).Select("type, COUNT(*) AS count").Group("type").Scan(&typeRows).Error; err != nil {
		return nil, err
	}
	for _, row := range typeRows {
		stats.ByType[row.Type] = row.Count
	}

	var totals struct {
		Pages   int64
		Volumes int64
	}
	if err := r.db.Model(&entities.Book{}).
		Select("COALESCE(SUM(pages_read), 0) AS pages, COALESCE(SUM(volumes_read), 0) AS volumes").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	stats.PagesRead = totals.Pages
	stats.VolumesRead = totals.Volumes

	// Unrated books (rating 0) do not drag the average down
	var avg struct{ Avg float64 }
	if err := r.db.Model(&entities.Book{}).
		Select("COALESCE(AVG(rating), 0) AS avg").
		Where("rating > 0").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	stats.AverageRating = avg.Avg

	var reading []entities.Book
	if err := r.db.Select("pages_read", "total_pages").
		Where("status = ?", entities.BookStatusReading).
		Find(&reading).Error; err != nil {
		return nil, err
	}
	if len(reading) > 0 {
		var sum float64
		for i := range reading {
			sum += reading[i].Progress()
		}
		stats.ReadingProgress = sum / float64(len(reading))
	}

	// Year grouping is done in Go to stay portable across sqlite and postgres
	var finished []entities.Book
	if err := r.db.Select("end_date").
		Where("status = ? AND end_date IS NOT NULL", entities.BookStatusFinished).
		Find(&finished).Error; err != nil {
		return nil, err
	}
	for _, b := range finished {
		stats.FinishedByYear[b.EndDate.Year()]++
	}

	return stats, nil
}
