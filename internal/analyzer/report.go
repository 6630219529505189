package analyzer

import (
	"errors"
	"fmt"

	apperrors "wxdata/internal/errors"
	"wxdata/internal/reconcile"
)

// Pipeline names
const (
	PipelineTraffic       = "traffic"
	PipelineArticle7d     = "article_7d"
	PipelineArticleDetail = "article_detail"
)

// Failure is one input file (or one of its datasets) that could not be
// reconciled.
type Failure struct {
	Pipeline string
	Path     string
	Table    string
	Dataset  string
	Err      error
}

func newFailure(pipeline, path string, err error) Failure {
	f := Failure{Pipeline: pipeline, Path: path, Err: err}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if v, ok := appErr.Context["table"].(string); ok {
			f.Table = v
		}
		if v, ok := appErr.Context["dataset"].(string); ok {
			f.Dataset = v
		}
	}
	return f
}

func (f Failure) Error() string {
	msg := fmt.Sprintf("%s %s", f.Pipeline, f.Path)
	if f.Table != "" {
		msg += " table " + f.Table
	}
	if f.Dataset != "" {
		msg += " dataset " + f.Dataset
	}
	return msg + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarizes one Process run.
type Report struct {
	Account   string
	Results   []*reconcile.MergeResult
	Failures  []Failure
	Published int
}

// Failed reports whether any input failed.
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// Err joins every failure, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Written lists the datasets that were rewritten.
func (r *Report) Written() []string {
	var names []string
	seen := make(map[string]bool)
	for _, res := range r.Results {
		if res.Written && !seen[res.Path] {
			seen[res.Path] = true
			names = append(names, res.Path)
		}
	}
	return names
}
