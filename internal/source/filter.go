package source

import (
	"iter"
	"slices"

	"github.com/theirongolddev/burnline/internal/model"

	"github.com/sirupsen/logrus"
)

// Keep reports whether a record belongs in primary-session accounting.
// Sub-agent records are dropped, as are records with neither usage nor a
// recognizable role.
func Keep(r model.Record) bool {
	if r.IsSidechain {
		return false
	}
	return r.HasUsage() || r.Role != model.RoleUnknown
}

// Filter lazily applies Keep to seq.
func Filter(seq iter.Seq[model.Record]) iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		for r := range seq {
			if !Keep(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Collect reads and filters the transcript at path into a slice, in file
// order.
func Collect(path string, log logrus.FieldLogger) []model.Record {
	return slices.Collect(Filter(Records(path, log)))
}
