// internal/ingest/pipeline.go
//
// Spreadsheet → catalog import.
//
// Context
// -------
// A run is one Batch.  Every data row gets its own savepoint so a failed
// insert is undone without losing the rows before it, and every category
// link gets a nested one so a bad link never costs the hosting.  Nothing is
// visible to readers until the single commit at the end.
//
// Duplicate names are checked before the insert, but the check and the
// insert are not atomic across concurrent imports.  The storage unique
// constraint settles that race: the loser's insert fails with
// catalog.ErrDuplicateName and the row is reported as a Duplicate.
//
// Notes
// -----
//   - Run never stops on a row error.  It stops on a cancelled context, a
//     category that does not exist, or a failed Begin.
//   - Oxford commas, two spaces after periods.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/metrics"
	"github.com/yanizio/hostcat/internal/sheet"
)

const (
	rowSavepoint  = "ingest_row"
	linkSavepoint = "ingest_link"
)

// Beginner opens write batches.  catalog.Store satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (catalog.Batch, error)
}

// Options configures a Pipeline.  The zero value imports with the default
// column labels, no categories, and no url resolution.
type Options struct {
	Columns          Columns
	Categories       []int64
	Favorite         bool
	DryRun           bool
	MessagingBaseURL string
	Resolver         URLResolver
	Logger           *zap.Logger
}

// Pipeline imports tables into a store.
type Pipeline struct {
	store Beginner
	opt   Options
	log   *zap.Logger
}

// New returns a Pipeline writing to store.
func New(store Beginner, opt Options) *Pipeline {
	log := opt.Logger
	if log == nil {
		log = zap.L()
	}
	return &Pipeline{store: store, opt: opt, log: log.Named("ingest")}
}

// Run imports every data row of t.  The returned report is never nil.  A
// failed commit yields a report with Committed=false and an error wrapping
// ErrCommit.
func (p *Pipeline) Run(ctx context.Context, t *sheet.Table) (*Report, error) {
	rep := &Report{DryRun: p.opt.DryRun}

	b, err := p.store.Begin(ctx)
	if err != nil {
		return rep, err
	}
	defer b.Rollback()

	for _, id := range p.opt.Categories {
		ok, err := b.CategoryExists(ctx, id)
		if err != nil {
			return rep, err
		}
		if !ok {
			return rep, fmt.Errorf("category %d: %w", id, catalog.ErrCategoryNotFound)
		}
	}

	norm := NewNormalizer(t, p.opt.Columns, p.opt.MessagingBaseURL, p.opt.Resolver)
	hostings := make([]catalog.Hosting, len(t.Rows))
	for i, r := range t.Rows {
		if !r.Empty() {
			hostings[i] = norm.Normalize(ctx, r)
			hostings[i].Favorite = p.opt.Favorite
			hostings[i].Truncate()
		}
	}
	p.warnRepeatedNames(t.Rows, hostings)

	for i, r := range t.Rows {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res := p.row(ctx, b, r, &hostings[i])
		rep.add(res)
		if res.Kind == KindCategory {
			rep.CategoryErrors += categoryFailures(res.Err)
		}
	}

	if p.opt.DryRun {
		if err := b.Rollback(); err != nil {
			return rep, err
		}
		p.log.Info("dry run finished", zap.Stringer("report", rep))
		return rep, nil
	}

	if err := b.Commit(); err != nil {
		p.log.Error("commit failed, batch rolled back", zap.Error(err))
		return rep, fmt.Errorf("%w: %w", ErrCommit, err)
	}
	rep.Committed = true
	p.record(rep)
	p.log.Info("import committed", zap.Stringer("report", rep))
	return rep, nil
}

func (p *Pipeline) row(ctx context.Context, b catalog.Batch, r sheet.Row, h *catalog.Hosting) RowResult {
	res := RowResult{Line: r.Line, Name: h.Name}
	log := p.log.With(zap.Int("line", r.Line))

	if r.Empty() {
		res.Outcome = Empty
		return res
	}
	if h.Name == "" {
		res.Outcome, res.Kind = Failed, KindMissingName
		res.Err = errors.New("hosting name is empty")
		log.Warn("row skipped", zap.Error(res.Err))
		return res
	}

	fail := func(err error) RowResult {
		if rbErr := b.RollbackTo(ctx, rowSavepoint); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		res.Outcome, res.Kind, res.Err = Failed, KindStorage, err
		log.Error("row failed", zap.String("name", h.Name), zap.Error(err))
		return res
	}

	if err := b.Savepoint(ctx, rowSavepoint); err != nil {
		res.Outcome, res.Kind, res.Err = Failed, KindStorage, err
		log.Error("row failed", zap.String("name", h.Name), zap.Error(err))
		return res
	}

	exists, err := b.NameExists(ctx, h.Name)
	if err != nil {
		return fail(err)
	}
	if exists {
		res.Outcome = Duplicate
		log.Info("duplicate skipped", zap.String("name", h.Name))
		return p.release(ctx, b, res, fail)
	}

	id, err := b.Insert(ctx, h)
	if errors.Is(err, catalog.ErrDuplicateName) {
		if rbErr := b.RollbackTo(ctx, rowSavepoint); rbErr != nil {
			return fail(errors.Join(err, rbErr))
		}
		res.Outcome = Duplicate
		log.Info("duplicate skipped", zap.String("name", h.Name))
		return p.release(ctx, b, res, fail)
	}
	if err != nil {
		return fail(err)
	}
	res.Name = h.Name

	var linkErrs []error
	for _, cid := range p.opt.Categories {
		if err := p.link(ctx, b, id, cid); err != nil {
			log.Warn("category link failed",
				zap.String("name", h.Name), zap.Int64("category", cid), zap.Error(err))
			linkErrs = append(linkErrs, err)
		}
	}

	res.Outcome = Inserted
	if len(linkErrs) > 0 {
		res.Kind = KindCategory
		res.Err = &CategoryError{Errs: linkErrs}
	}
	log.Debug("row inserted", zap.String("name", h.Name), zap.Int64("id", id))
	return p.release(ctx, b, res, fail)
}

// release ends the row savepoint.  A failed release turns the row into a
// storage failure.
func (p *Pipeline) release(ctx context.Context, b catalog.Batch, res RowResult, fail func(error) RowResult) RowResult {
	if err := b.Release(ctx, rowSavepoint); err != nil {
		return fail(err)
	}
	return res
}

func (p *Pipeline) link(ctx context.Context, b catalog.Batch, hostingID, categoryID int64) error {
	if err := b.Savepoint(ctx, linkSavepoint); err != nil {
		return err
	}
	if err := b.Link(ctx, hostingID, categoryID); err != nil {
		if rbErr := b.RollbackTo(ctx, linkSavepoint); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return b.Release(ctx, linkSavepoint)
}

// warnRepeatedNames logs names that occur on more than one row.  Only the
// first occurrence can be inserted; the rest will be reported as
// duplicates.
func (p *Pipeline) warnRepeatedNames(rows []sheet.Row, hostings []catalog.Hosting) {
	seen := make(map[string][]int)
	var order []string
	for i, h := range hostings {
		if h.Name == "" {
			continue
		}
		if _, ok := seen[h.Name]; !ok {
			order = append(order, h.Name)
		}
		seen[h.Name] = append(seen[h.Name], rows[i].Line)
	}
	for _, name := range order {
		if lines := seen[name]; len(lines) > 1 {
			p.log.Warn("name repeated in input", zap.String("name", name), zap.Ints("lines", lines))
		}
	}
}

func (p *Pipeline) record(rep *Report) {
	for _, o := range []struct {
		outcome Outcome
		n       int
	}{
		{Inserted, rep.Inserted},
		{Duplicate, rep.Duplicates},
		{Empty, rep.Empty},
		{Failed, rep.Failed},
	} {
		if o.n > 0 {
			metrics.IngestRowsTotal.WithLabelValues(o.outcome.String()).Add(float64(o.n))
		}
	}
}

// CategoryError collects the link failures of one inserted row.
type CategoryError struct {
	Errs []error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("%d category link(s) failed: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *CategoryError) Unwrap() []error { return e.Errs }

func categoryFailures(err error) int {
	var ce *CategoryError
	if errors.As(err, &ce) {
		return len(ce.Errs)
	}
	return 0
}
