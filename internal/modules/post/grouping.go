package post

import (
	"strconv"

	"github.com/artwall/core/internal/models"
)

// UnknownYearKey groups posts that carry no artwork year.
const UnknownYearKey = "Unknown"

// YearGroup is a contiguous run of posts sharing a year key.
type YearGroup struct {
	Year  string        `json:"year"`
	Posts []models.Post `json:"posts"`
}

// GroupByYear partitions an already-ordered sequence into contiguous runs
// wherever the year value changes. It never re-sorts: a missing-year post
// between two same-year posts still splits the run, because grouping is
// purely adjacency-based.
func GroupByYear(posts []models.Post) []YearGroup {
	var groups []YearGroup
	for _, p := range posts {
		key := UnknownYearKey
		if p.Year != 0 {
			key = strconv.Itoa(p.Year)
		}
		if n := len(groups); n > 0 && groups[n-1].Year == key {
			groups[n-1].Posts = append(groups[n-1].Posts, p)
			continue
		}
		groups = append(groups, YearGroup{Year: key, Posts: []models.Post{p}})
	}
	return groups
}
