package visits

import (
	"fmt"
	"math"
)

// Record is one observed app visit from a visit log.
type Record struct {
	UserID        int    `json:"user_id"`
	ProductID     string `json:"product_id"`
	Category      string `json:"category"`
	ActivityLevel string `json:"activity_level"`
	IsRecVisit    bool   `json:"is_rec_visit"`
	RecRank       int    `json:"rec_rank"` // 1 = top slot; non-positive for organic visits
}

// HasRank reports whether the log recorded a rank for the visit.
func (r Record) HasRank() bool {
	return r.RecRank != UnknownRank
}

// Column names of the visit log schema.
const (
	ColUserID        = "user_id"
	ColProductID     = "product_id"
	ColCategory      = "category"
	ColActivityLevel = "activity_level"
	ColIsRecVisit    = "is_rec_visit"
	ColRecRank       = "rec_rank"
)

const (
	// NoRank marks a visit that did not come from a recommendation slot.
	NoRank = -1
	// UnknownRank marks a blank rec_rank cell. Such visits have no rank key at all and
	// are left out of per-rank tables.
	UnknownRank = math.MinInt
)

// RequiredColumns must be present in every visit log header.
var RequiredColumns = []string{ColProductID, ColRecRank}

// Dataset is a loaded visit log together with the columns its header declared.
type Dataset struct {
	Name    string
	Path    string
	Records []Record
	columns map[string]bool
}

// HasColumn reports whether the source header declared the column.
func (d *Dataset) HasColumn(name string) bool {
	return d.columns[name]
}

// Len returns the number of visits.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// RequireColumns returns ErrMissingColumn naming the first column the header lacked.
func (d *Dataset) RequireColumns(cols ...string) error {
	for _, c := range cols {
		if !d.HasColumn(c) {
			return fmt.Errorf("%s: %w: %s", d.Name, ErrMissingColumn, c)
		}
	}
	return nil
}
