package reconcile

import (
	"log/slog"
	"sort"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// MergeStats counts what a merge did.
type MergeStats struct {
	// Kept existing rows whose key did not appear in incoming.
	Kept int
	// Replaced existing rows superseded by incoming rows.
	Replaced int
	// Added incoming rows after duplicates were collapsed.
	Added int
	// Collapsed duplicate incoming rows dropped in favour of a later one.
	Collapsed int
}

// Merge upserts incoming into existing. existing may be nil.
//
// Incoming rows sharing the same identity (key plus discriminator) are
// collapsed, the last occurrence winning. Existing rows whose key tuple
// appears in incoming are dropped; incoming always wins and rows are
// replaced whole. The union of kept and incoming rows is stable-sorted
// descending by the spec's sort field. Neither input is modified.
func Merge(existing, incoming *domain.Dataset, spec DatasetSpec, logger *slog.Logger) (*domain.Dataset, MergeStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats MergeStats

	for _, col := range append(spec.Key.With(), spec.SortField) {
		if !incoming.HasColumn(col) {
			return nil, stats, apperrors.NewMissingColumnError(spec.Name, col)
		}
	}

	rows := dedupe(incoming.Rows, spec, logger)
	stats.Collapsed = len(incoming.Rows) - len(rows)
	stats.Added = len(rows)

	incomingKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		incomingKeys[spec.Key.Tuple(r)] = struct{}{}
	}

	out := domain.NewDataset()
	if existing != nil {
		out.AddColumns(existing.Columns...)
		for _, r := range existing.Rows {
			if _, hit := incomingKeys[spec.Key.Tuple(r)]; hit {
				stats.Replaced++
				continue
			}
			out.Rows = append(out.Rows, r.Clone())
			stats.Kept++
		}
	}
	out.AddColumns(incoming.Columns...)
	for _, r := range rows {
		out.Rows = append(out.Rows, r.Clone())
	}

	sortDescending(out.Rows, spec.SortField)
	return out, stats, nil
}

// dedupe keeps the last occurrence of every identity, at the position of
// that last occurrence.
func dedupe(rows []*domain.Record, spec DatasetSpec, logger *slog.Logger) []*domain.Record {
	identity := spec.Identity()
	last := make(map[string]int, len(rows))
	for i, r := range rows {
		id := identity.Tuple(r)
		if _, dup := last[id]; dup {
			err := apperrors.NewKeyCollisionError(spec.Name, identity.String())
			logger.Warn("Duplicate key in incoming rows, keeping last",
				slog.String("dataset", spec.Name),
				slog.Any("key", identity.Values(r)),
				slog.String("error", err.Error()))
		}
		last[id] = i
	}

	out := make([]*domain.Record, 0, len(last))
	for i, r := range rows {
		if last[identity.Tuple(r)] == i {
			out = append(out, r)
		}
	}
	return out
}

func sortDescending(rows []*domain.Record, field string) {
	sort.SliceStable(rows, func(i, j int) bool {
		return compareValues(rows[i].Value(field), rows[j].Value(field)) > 0
	})
}
