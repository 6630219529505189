// Package dataprocessing turns downloaded analytics workbooks into
// normalized datasets.
//
// An export is read into a Grid (ReadGrid). Single-table exports are read
// with ReadTallTable. Composite article detail exports are cut into named
// sub-tables by SplitTables, then each table kind is normalized by its
// Transform (TransposePairs or Passthrough) and projected by its Policy.
//
//	grid, err := dataprocessing.ReadGrid(path)
//	if err != nil {
//	    return err
//	}
//	detail, err := dataprocessing.ExtractArticleDetail(grid, title, logger)
//
// Every error is an *errors.AppError of type MALFORMED_EXPORT,
// AMBIGUOUS_LABEL or MISSING_REQUIRED_COLUMN.
package dataprocessing
