package dataprocessing

import (
	"fmt"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// Project applies p to ds in place and returns it. table names the source
// table in errors.
func Project(table string, p Policy, ds *domain.Dataset) (*domain.Dataset, error) {
	for _, col := range p.Required {
		if !ds.HasColumn(col) {
			return nil, apperrors.NewMissingColumnError(table, col)
		}
	}

	if p.DropRowsWhere != nil {
		ds.Rows = ds.Filter(func(r *domain.Record) bool { return !p.DropRowsWhere(r) }).Rows
	}

	for _, col := range p.DropColumns {
		if ds.HasColumn(col) {
			ds.DropColumn(col)
		}
	}

	for _, col := range p.DateColumns {
		if !ds.HasColumn(col) {
			continue
		}
		for i, r := range ds.Rows {
			v, ok := r.Get(col)
			if !ok {
				continue
			}
			norm, err := NormalizeDate(v)
			if err != nil {
				return nil, apperrors.NewAppError(apperrors.ErrTypeMalformedExport,
					fmt.Sprintf("bad date in column %q row %d", col, i+1), err).
					WithContext("table", table)
			}
			r.Set(col, norm)
		}
	}

	return ds, nil
}

// DerivePublishDate returns the earliest trend date. Trend dates are
// already normalized, so the lexical minimum is the earliest day.
func DerivePublishDate(trend *domain.Dataset) (string, error) {
	if !trend.HasColumn(domain.ColDate) {
		return "", apperrors.NewMissingColumnError(domain.TableTrend.String(), domain.ColDate)
	}

	earliest := ""
	for _, r := range trend.Rows {
		d := r.Value(domain.ColDate)
		if d == "" {
			continue
		}
		if earliest == "" || d < earliest {
			earliest = d
		}
	}
	if earliest == "" {
		return "", apperrors.NewMalformedExportError("trend table has no dates").
			WithContext("table", domain.TableTrend.String())
	}
	return earliest, nil
}

// PartitionTraffic projects a traffic export and splits it into the
// all-channel summary rows and the per-channel rows.
func PartitionTraffic(ds *domain.Dataset) (summary, channels *domain.Dataset, err error) {
	ds, err = Project("traffic", TrafficPolicy, ds)
	if err != nil {
		return nil, nil, err
	}

	summary = ds.Filter(func(r *domain.Record) bool {
		return r.Value(domain.ColChannel) == domain.ChannelAll
	})
	channels = ds.Filter(func(r *domain.Record) bool {
		return r.Value(domain.ColChannel) != domain.ChannelAll
	})
	return summary, channels, nil
}
