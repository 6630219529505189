package dataprocessing

import (
	"fmt"
	"log/slog"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// ArticleDetail is everything extracted from one article detail export.
type ArticleDetail struct {
	Title       string
	PublishDate string
	// Detail holds the single combined article_detail record.
	Detail *domain.Dataset
	Trend  *domain.Dataset
	// Distributions holds the gender, age and region tables that were
	// present in the export.
	Distributions map[domain.TableKind]*domain.Dataset
}

// ExtractArticleDetail splits an article detail export into its sub-tables
// and normalizes and projects each one. Every resulting row is tagged with
// the article title; the combined detail record also carries the publish
// date derived from the trend table.
func ExtractArticleDetail(grid domain.Grid, title string, logger *slog.Logger) (*ArticleDetail, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables, err := SplitTables(grid)
	if err != nil {
		return nil, err
	}

	byKind := make(map[domain.TableKind]*domain.LabeledTable, len(tables))
	for i := range tables {
		t := &tables[i]
		if t.Kind == domain.TableUnknown {
			logger.Warn("Skipping unknown table",
				slog.String("table", t.Name),
				slog.Int("position", t.Position))
			continue
		}
		if _, dup := byKind[t.Kind]; dup {
			return nil, apperrors.NewMalformedExportError("table repeats").
				WithContext("table", t.Name).
				WithContext("position", t.Position)
		}
		byKind[t.Kind] = t
	}

	for _, kind := range RequiredTables {
		if _, ok := byKind[kind]; !ok {
			return nil, apperrors.NewMalformedExportError("required table missing").
				WithContext("table", kind.String())
		}
	}
	for _, kind := range domain.TableKinds {
		if _, ok := byKind[kind]; !ok {
			logger.Warn("Optional table missing", slog.String("table", kind.String()))
		}
	}

	out := &ArticleDetail{
		Title:         title,
		Distributions: make(map[domain.TableKind]*domain.Dataset),
	}

	trendPolicy, _ := PolicyFor(domain.TableTrend)
	out.Trend, err = Project(domain.TableTrend.String(), trendPolicy, Passthrough(byKind[domain.TableTrend]))
	if err != nil {
		return nil, err
	}
	out.PublishDate, err = DerivePublishDate(out.Trend)
	if err != nil {
		return nil, err
	}
	out.Trend.SetAll(domain.ColArticleTitle, title)

	detail := domain.NewRecord()
	detail.Set(domain.ColArticleTitle, title)
	detail.Set(domain.ColPublishDate, out.PublishDate)
	for _, kind := range Combined {
		t, ok := byKind[kind]
		if !ok {
			continue
		}
		rec, err := TransposePairs(t)
		if err != nil {
			return nil, err
		}
		for _, label := range rec.Columns() {
			column := label
			if detail.Has(column) {
				column = fmt.Sprintf("%s_%s", t.Name, label)
				logger.Debug("Prefixing repeated label",
					slog.String("table", t.Name),
					slog.String("label", label))
			}
			if detail.Has(column) {
				return nil, apperrors.NewAmbiguousLabelError(t.Name, label)
			}
			detail.Set(column, rec.Value(label))
		}
	}
	out.Detail = domain.NewDataset()
	out.Detail.Append(detail)

	for _, kind := range []domain.TableKind{domain.TableGender, domain.TableAge, domain.TableRegion} {
		t, ok := byKind[kind]
		if !ok {
			continue
		}
		policy, _ := PolicyFor(kind)
		ds, err := Project(t.Name, policy, Passthrough(t))
		if err != nil {
			return nil, err
		}
		ds.SetAll(domain.ColArticleTitle, title)
		out.Distributions[kind] = ds
	}

	return out, nil
}
