// Package diff computes field-level differences between two content versions.
//
// Compute is pure: it reads only its arguments and always succeeds. Output
// order is fixed (title, slug, type, status, tags, body) so that comparisons
// are deterministic regardless of how the records were loaded.
package diff

import (
	"slices"
	"strings"

	"github.com/deptdocs/revisor/internal/models"
)

// Field names in emission order.
const (
	FieldTitle  = "title"
	FieldSlug   = "slug"
	FieldType   = "type"
	FieldStatus = "status"
	FieldTags   = "tags"
	FieldBody   = "body"
)

// Fields lists the versionable fields in the order diffs are emitted.
var Fields = []string{FieldTitle, FieldSlug, FieldType, FieldStatus, FieldTags, FieldBody}

// Compute returns the minimal ordered set of changes turning a into b.
// Unchanged fields are omitted.
func Compute(a, b models.VersionFields) []models.VersionDiff {
	diffs := make([]models.VersionDiff, 0, len(Fields))

	for _, field := range Fields {
		switch field {
		case FieldTitle:
			diffs = appendScalar(diffs, field, a.Title, b.Title)
		case FieldSlug:
			diffs = appendScalar(diffs, field, a.Slug, b.Slug)
		case FieldType:
			diffs = appendScalar(diffs, field, string(a.Type), string(b.Type))
		case FieldStatus:
			diffs = appendScalar(diffs, field, string(a.Status), string(b.Status))
		case FieldTags:
			if d, ok := tagsDiff(a.Tags, b.Tags); ok {
				diffs = append(diffs, d)
			}
		case FieldBody:
			diffs = appendScalar(diffs, field, a.Body, b.Body)
		}
	}

	return diffs
}

// Compare diffs two version records and wraps the result in a comparison.
// Author enrichment is left to the caller.
func Compare(from, to *models.VersionRecord) *models.VersionComparison {
	diffs := Compute(from.VersionFields, to.VersionFields)

	return &models.VersionComparison{
		ContentID:    to.ContentID,
		FromVersion:  from.VersionNumber,
		ToVersion:    to.VersionNumber,
		From:         models.EnrichedVersion{VersionRecord: *from},
		To:           models.EnrichedVersion{VersionRecord: *to},
		Diffs:        diffs,
		TotalChanges: len(diffs),
	}
}

// Summarize builds a short human-readable summary such as
// "Updated title, status". It returns "" when there are no diffs.
func Summarize(diffs []models.VersionDiff) string {
	if len(diffs) == 0 {
		return ""
	}

	names := make([]string, len(diffs))
	for i, d := range diffs {
		names[i] = d.Field
	}

	return "Updated " + strings.Join(names, ", ")
}

func appendScalar(diffs []models.VersionDiff, field, oldValue, newValue string) []models.VersionDiff {
	if oldValue == newValue {
		return diffs
	}

	return append(diffs, models.VersionDiff{
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		ChangeType: models.ChangeModified,
	})
}

// tagsDiff compares tags as sets. Nil and empty are the same set. The values
// carried in the diff keep each side's original order.
func tagsDiff(a, b []string) (models.VersionDiff, bool) {
	if sameSet(a, b) {
		return models.VersionDiff{}, false
	}

	d := models.VersionDiff{
		Field:      FieldTags,
		OldValue:   nonNil(a),
		NewValue:   nonNil(b),
		ChangeType: models.ChangeModified,
	}

	switch {
	case len(a) == 0:
		d.ChangeType = models.ChangeAdded
	case len(b) == 0:
		d.ChangeType = models.ChangeRemoved
	}

	return d, true
}

func sameSet(a, b []string) bool {
	setA := toSet(a)
	setB := toSet(b)

	if len(setA) != len(setB) {
		return false
	}

	for k := range setA {
		if _, ok := setB[k]; !ok {
			return false
		}
	}

	return true
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}

	return set
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return slices.Clone(tags)
}
