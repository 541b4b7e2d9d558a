package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ct-housing-dashboard/models"
	"ct-housing-dashboard/utils"
)

// minYear is the earliest year kept in the working set.
const minYear = 2006

var titleCaser = cases.Title(language.AmericanEnglish)

// Cleaner filters raw records into the canonical working set.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean applies the working-set filter exactly once: keep records from
// minYear on whose residential type is neither empty nor "nan" in any
// casing. An empty residential type becomes "Unspecified" before the
// predicate runs. Town names are normalized here so every later group-by
// and the geo join share one key space. Input records are not mutated.
func (c *Cleaner) Clean(raw []*models.SaleRecord) []*models.SaleRecord {
	result := make([]*models.SaleRecord, 0, len(raw))

	for _, r := range raw {
		resType := strings.TrimSpace(r.ResidentialType)
		if resType == "" {
			resType = "Unspecified"
		}
		if r.Year < minYear || strings.EqualFold(resType, "nan") {
			continue
		}

		rec := *r
		rec.Town = NormalizeTown(r.Town)
		rec.ResidentialType = resType
		rec.PropertyType = strings.TrimSpace(r.PropertyType)
		result = append(result, &rec)
	}

	c.logger.Info("[cleaner] Working set: %d of %d records (dropped %d)",
		len(result), len(raw), len(raw)-len(result))
	return result
}

// NormalizeTown trims, collapses internal whitespace runs to a single
// space, and title-cases word boundaries. It is idempotent and is the
// join key between the sales table and the boundary file: both sides
// must pass through it, or unmatched towns silently paint as no-data.
func NormalizeTown(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return titleCaser.String(strings.Join(fields, " "))
}
