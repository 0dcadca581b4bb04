// internal/catalog/store.go
//
// Store contracts and the sqlx-backed implementation.
//
// Context
// -------
// Handlers read through Reader.  The importer writes through a Batch: one
// database transaction with named savepoints so a failed row can be undone
// without discarding the rows accepted before it.  Postgres aborts the whole
// transaction on any statement error unless a savepoint is rolled back, so
// the savepoints are load-bearing, not cosmetic.
//
// The *sqlx.DB is injected; nothing in this package holds global state.
//
// Notes
// -----
//   - Queries use `?` and go through db.Rebind, so the same text serves
//     lib/pq ($1) and go-sql-driver/mysql (?).
//   - Oxford commas, two spaces after periods.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
)

// Reader serves listings.
type Reader interface {
	List(ctx context.Context, f Filter) ([]Hosting, error)
	Categories(ctx context.Context) ([]Category, error)
}

// Batch is one write transaction.  Callers must end it with Commit or
// Rollback; Rollback after Commit is a no-op.
type Batch interface {
	NameExists(ctx context.Context, name string) (bool, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, h *Hosting) (int64, error)
	Link(ctx context.Context, hostingID, categoryID int64) error

	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error

	Commit() error
	Rollback() error
}

// Store is the full catalog surface.
type Store interface {
	Reader
	Begin(ctx context.Context) (Batch, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
}

/*──────────────────────────── SQL store ────────────────────────────────────*/

// SQLStore implements Store on top of sqlx.
type SQLStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open pool.  The caller keeps ownership of db.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) mysql() bool { return s.db.DriverName() == "mysql" }

// List runs the filter query and attaches categories to every row.
func (s *SQLStore) List(ctx context.Context, f Filter) ([]Hosting, error) {
	q, args := Build(f)

	hostings := make([]Hosting, 0, 32)
	if err := s.db.SelectContext(ctx, &hostings, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list hostings: %w", err)
	}
	if len(hostings) == 0 {
		return hostings, nil
	}

	ids := make([]int64, len(hostings))
	index := make(map[int64]int, len(hostings))
	for i, h := range hostings {
		ids[i] = h.ID
		index[h.ID] = i
	}

	q, args, err := sqlx.In(`SELECT hc.hosting_id, c.category_id, c.category_name
           FROM hosting_category hc
           JOIN category c ON c.category_id = hc.category_id
          WHERE hc.hosting_id IN (?)
          ORDER BY c.category_name, c.category_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var links []struct {
		HostingID int64 `db:"hosting_id"`
		Category
	}
	if err := s.db.SelectContext(ctx, &links, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, l := range links {
		if i, ok := index[l.HostingID]; ok {
			hostings[i].Categories = append(hostings[i].Categories, l.Category)
		}
	}
	return hostings, nil
}

// Categories returns every category ordered by name.
func (s *SQLStore) Categories(ctx context.Context) ([]Category, error) {
	const q = `SELECT category_id, category_name FROM category ORDER BY category_name, category_id`
	out := make([]Category, 0, 8)
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return out, nil
}

// CreateCategory inserts a category.  A name clash returns
// ErrDuplicateName.
func (s *SQLStore) CreateCategory(ctx context.Context, name string) (Category, error) {
	c := Category{Name: clip(name, MaxCategoryNameLen)}
	id, err := insertReturningID(ctx, s.db, s.mysql(),
		`INSERT INTO category (category_name) VALUES (?)`, "category_id", c.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return Category{}, fmt.Errorf("category %q: %w", c.Name, ErrDuplicateName)
		}
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	return c, nil
}

// Begin opens a write transaction.
func (s *SQLStore) Begin(ctx context.Context) (Batch, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &sqlBatch{tx: tx, mysql: s.mysql()}, nil
}

/*──────────────────────────── SQL batch ────────────────────────────────────*/

type sqlBatch struct {
	tx    *sqlx.Tx
	mysql bool
	done  bool
}

func (b *sqlBatch) NameExists(ctx context.Context, name string) (bool, error) {
	var id int64
	err := b.tx.GetContext(ctx, &id, b.tx.Rebind(`SELECT hosting_id FROM hosting WHERE hosting_name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("name lookup: %w", err)
	}
	return true, nil
}

func (b *sqlBatch) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var got int64
	err := b.tx.GetContext(ctx, &got, b.tx.Rebind(`SELECT category_id FROM category WHERE category_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("category lookup: %w", err)
	}
	return true, nil
}

// Insert truncates h, writes it, and returns the new id.  h.ID is set on
// success.
func (b *sqlBatch) Insert(ctx context.Context, h *Hosting) (int64, error) {
	h.Truncate()
	id, err := insertReturningID(ctx, b.tx, b.mysql, `INSERT INTO hosting (
               hosting_name, url, status, risk, advantages,
               disadvantages, hosting_location, servers_location,
               min_price_in_dollars, favorite
           ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, "hosting_id",
		h.Name, h.URL, h.Status, h.Risk, h.Advantages,
		h.Disadvantages, h.HostingLocation, h.ServersLocation,
		h.MinPriceUSD, h.Favorite)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("hosting %q: %w", h.Name, ErrDuplicateName)
		}
		return 0, fmt.Errorf("insert hosting: %w", err)
	}
	h.ID = id
	return id, nil
}

func (b *sqlBatch) Link(ctx context.Context, hostingID, categoryID int64) error {
	_, err := b.tx.ExecContext(ctx,
		b.tx.Rebind(`INSERT INTO hosting_category (hosting_id, category_id) VALUES (?, ?)`),
		hostingID, categoryID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %d: %w", categoryID, ErrCategoryNotFound)
		}
		return fmt.Errorf("link category: %w", err)
	}
	return nil
}

var savepointName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func (b *sqlBatch) savepointExec(ctx context.Context, stmt, name string) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	if _, err := b.tx.ExecContext(ctx, stmt+" "+name); err != nil {
		return fmt.Errorf("%s %s: %w", stmt, name, err)
	}
	return nil
}

func (b *sqlBatch) Savepoint(ctx context.Context, name string) error {
	return b.savepointExec(ctx, "SAVEPOINT", name)
}

func (b *sqlBatch) RollbackTo(ctx context.Context, name string) error {
	return b.savepointExec(ctx, "ROLLBACK TO SAVEPOINT", name)
}

func (b *sqlBatch) Release(ctx context.Context, name string) error {
	return b.savepointExec(ctx, "RELEASE SAVEPOINT", name)
}

func (b *sqlBatch) Commit() error {
	if b.done {
		return sql.ErrTxDone
	}
	b.done = true
	return b.tx.Commit()
}

func (b *sqlBatch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// execQueryer is satisfied by *sqlx.DB and *sqlx.Tx.
type execQueryer interface {
	sqlx.ExtContext
}

// insertReturningID runs an INSERT and returns the generated key.  Postgres
// uses RETURNING; MySQL reads LastInsertId.
func insertReturningID(ctx context.Context, e execQueryer, mysql bool, q, idCol string, args ...any) (int64, error) {
	if mysql {
		res, err := e.ExecContext(ctx, e.Rebind(q), args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	if err := e.QueryRowxContext(ctx, e.Rebind(q+" RETURNING "+idCol), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
