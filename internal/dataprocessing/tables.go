package dataprocessing

import "wxdata/pkg/contracts/domain"

// Transform selects how a sub-table is normalized.
type Transform int

const (
	// TransformPairs transposes a label/value table into one wide record.
	TransformPairs Transform = iota
	// TransformPassthrough keeps a tall table row per observation.
	TransformPassthrough
)

// Policy is the normalization and projection applied to one table kind.
type Policy struct {
	Transform Transform
	// Required columns must be present after normalization.
	Required []string
	// DropColumns are removed when present.
	DropColumns []string
	// DropRowsWhere removes matching rows; nil keeps every row.
	DropRowsWhere func(*domain.Record) bool
	// DateColumns are rewritten to YYYY-MM-DD.
	DateColumns []string
}

// policies is the static table-kind registry of the article detail export.
var policies = map[domain.TableKind]Policy{
	domain.TableSummary:             {Transform: TransformPairs},
	domain.TableReadConversion:      {Transform: TransformPairs},
	domain.TableRecommendConversion: {Transform: TransformPairs},
	domain.TableTrend: {
		Transform:   TransformPassthrough,
		Required:    []string{domain.ColDate},
		DateColumns: []string{domain.ColDate},
	},
	domain.TableGender: {
		Transform:   TransformPassthrough,
		Required:    []string{domain.ColGender},
		DropColumns: []string{domain.ColShare},
	},
	domain.TableAge: {
		Transform:   TransformPassthrough,
		Required:    []string{domain.ColAge},
		DropColumns: []string{domain.ColShare},
	},
	domain.TableRegion: {
		Transform:   TransformPassthrough,
		Required:    []string{domain.ColRegion},
		DropColumns: []string{domain.ColShare},
		DropRowsWhere: func(r *domain.Record) bool {
			return r.Value(domain.ColRegion) == domain.RegionNationwide
		},
	},
}

// PolicyFor returns the policy of a known table kind.
func PolicyFor(kind domain.TableKind) (Policy, bool) {
	p, ok := policies[kind]
	return p, ok
}

// Combined lists the label/value tables merged column-wise into one
// article_detail record, in column order.
var Combined = []domain.TableKind{
	domain.TableSummary,
	domain.TableReadConversion,
	domain.TableRecommendConversion,
}

// RequiredTables must be present in every article detail export. The
// remaining kinds are optional; short-lived articles omit some of them.
var RequiredTables = []domain.TableKind{
	domain.TableSummary,
	domain.TableTrend,
}

// Traffic and 7-day export policies. These exports are a single tall table.
var (
	TrafficPolicy = Policy{
		Transform:   TransformPassthrough,
		Required:    []string{domain.ColDate, domain.ColChannel},
		DateColumns: []string{domain.ColDate},
	}
	Article7dPolicy = Policy{
		Transform: TransformPassthrough,
		Required:  []string{domain.ColContentTitle, domain.ColPublishTime},
	}
)
