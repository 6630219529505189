package reconcile

import (
	"fmt"
	"sort"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// DatasetSpec parameterizes the merge for one persisted dataset.
type DatasetSpec struct {
	// Name is the file stem under the account directory.
	Name string
	// Key identifies the logical entity; incoming rows replace every
	// existing row with the same key tuple.
	Key domain.NaturalKey
	// Discriminator columns tell apart rows that legitimately share a
	// key within one export, such as the gender rows of one article.
	Discriminator []string
	// SortField orders the dataset, descending.
	SortField string
}

// FileName returns the dataset's file name.
func (s DatasetSpec) FileName() string {
	return s.Name + ".csv"
}

// Identity is the key used to collapse duplicates inside one incoming batch.
func (s DatasetSpec) Identity() domain.NaturalKey {
	return s.Key.With(s.Discriminator...)
}

// The persisted datasets of one account.
var (
	Traffic = DatasetSpec{
		Name:      "traffic",
		Key:       domain.NaturalKey{domain.ColDate, domain.ColChannel},
		SortField: domain.ColDate,
	}
	TrafficSummary = DatasetSpec{
		Name:      "traffic_summary",
		Key:       domain.NaturalKey{domain.ColDate},
		SortField: domain.ColDate,
	}
	Article7d = DatasetSpec{
		Name:      "article_7d",
		Key:       domain.NaturalKey{domain.ColContentTitle},
		SortField: domain.ColPublishTime,
	}
	ArticleDetail = DatasetSpec{
		Name:      "article_detail",
		Key:       domain.NaturalKey{domain.ColArticleTitle},
		SortField: domain.ColPublishDate,
	}
	ArticleTrend = DatasetSpec{
		Name:          "article_trend_detail",
		Key:           domain.NaturalKey{domain.ColArticleTitle, domain.ColDate},
		Discriminator: []string{domain.ColSpreadChan},
		SortField:     domain.ColDate,
	}
	// The distributions sort by title, which carries no time order.
	// Deployments can pick another column through sort overrides.
	ArticleGender = DatasetSpec{
		Name:          "article_gender_distribution",
		Key:           domain.NaturalKey{domain.ColArticleTitle},
		Discriminator: []string{domain.ColGender},
		SortField:     domain.ColArticleTitle,
	}
	ArticleAge = DatasetSpec{
		Name:          "article_age_distribution",
		Key:           domain.NaturalKey{domain.ColArticleTitle},
		Discriminator: []string{domain.ColAge},
		SortField:     domain.ColArticleTitle,
	}
	ArticleRegion = DatasetSpec{
		Name:          "article_region_distribution",
		Key:           domain.NaturalKey{domain.ColArticleTitle},
		Discriminator: []string{domain.ColRegion},
		SortField:     domain.ColArticleTitle,
	}
)

// Distributions maps a distribution table kind to its dataset.
var Distributions = map[domain.TableKind]DatasetSpec{
	domain.TableGender: ArticleGender,
	domain.TableAge:    ArticleAge,
	domain.TableRegion: ArticleRegion,
}

// Catalog holds the dataset specs in effect for a run.
type Catalog map[string]DatasetSpec

// NewCatalog builds the catalog, applying per-dataset sort field
// overrides. Overriding an unknown dataset is a CONFIG error.
func NewCatalog(sortOverrides map[string]string) (Catalog, error) {
	c := make(Catalog)
	for _, spec := range []DatasetSpec{
		Traffic, TrafficSummary, Article7d, ArticleDetail,
		ArticleTrend, ArticleGender, ArticleAge, ArticleRegion,
	} {
		c[spec.Name] = spec
	}

	names := make([]string, 0, len(sortOverrides))
	for name := range sortOverrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, ok := c[name]
		if !ok {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("sort override for unknown dataset %q", name), nil)
		}
		if sortOverrides[name] == "" {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("empty sort override for dataset %q", name), nil)
		}
		spec.SortField = sortOverrides[name]
		c[name] = spec
	}

	return c, nil
}

// Get returns the spec in effect for base, which is one of the package
// level specs.
func (c Catalog) Get(base DatasetSpec) DatasetSpec {
	if spec, ok := c[base.Name]; ok {
		return spec
	}
	return base
}

// Names returns the dataset names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
