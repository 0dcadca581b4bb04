// internal/catalog/query_test.go
//
// Unit-tests for the SQL builder and SQLStore using sqlmock.
//
// Run: go test ./internal/catalog -v

package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func TestBuild_NoFilters(t *testing.T) {
	q, args := Build(Filter{})
	if strings.Contains(q, "WHERE") {
		t.Fatalf("unexpected WHERE in %q", q)
	}
	if len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
	if !strings.HasSuffix(q, "ORDER BY h.hosting_name IS NULL, h.hosting_name, h.hosting_id") {
		t.Fatalf("default order missing: %q", q)
	}
}

func TestBuild_UnknownSortIgnoresDirection(t *testing.T) {
	q, _ := Build(Filter{Sort: ParseSort("bogus", "desc")})
	if strings.Contains(q, "DESC") {
		t.Fatalf("unknown sort field kept direction: %q", q)
	}
	if !strings.HasSuffix(q, "ORDER BY h.hosting_name IS NULL, h.hosting_name, h.hosting_id") {
		t.Fatalf("unknown sort field did not fall back to name: %q", q)
	}
}

func TestBuild_AllFilters(t *testing.T) {
	cat := int64(2)
	price := 9.5
	risk := 40
	q, args := Build(Filter{
		CategoryID:       &cat,
		MaxPrice:         &price,
		NameContains:     "50%_off",
		FavoriteOnly:     true,
		StatusContains:   "OK",
		MaxRisk:          &risk,
		LocationContains: "NL",
		Sort:             Sort{Field: SortPrice, Desc: true},
	})

	for _, frag := range []string{
		"hc.category_id = ?",
		"h.min_price_in_dollars <= ?",
		"LOWER(h.hosting_name) LIKE ? ESCAPE '!'",
		"h.favorite = ?",
		"LOWER(h.status) LIKE ? ESCAPE '!'",
		"h.risk <= ?",
		"(LOWER(h.hosting_location) LIKE ? ESCAPE '!' OR LOWER(h.servers_location) LIKE ? ESCAPE '!')",
		"ORDER BY h.min_price_in_dollars IS NULL, h.min_price_in_dollars DESC, h.hosting_id",
	} {
		if !strings.Contains(q, frag) {
			t.Errorf("query missing %q", frag)
		}
	}

	want := []any{cat, price, "%50!%!_off%", true, "%ok%", risk, "%nl%", "%nl%"}
	if len(args) != len(want) {
		t.Fatalf("args = %#v, want %#v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %#v, want %#v", i, args[i], want[i])
		}
	}
}

func TestBuild_SortByID(t *testing.T) {
	q, _ := Build(Filter{Sort: ParseSort("id", "desc")})
	if !strings.HasSuffix(q, "ORDER BY h.hosting_id DESC") {
		t.Fatalf("unexpected order: %q", q)
	}
}

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(sqlx.NewDb(db, "postgres")), mock
}

var hostingCols = []string{
	"hosting_id", "hosting_name", "url", "status", "risk", "advantages",
	"disadvantages", "hosting_location", "servers_location",
	"min_price_in_dollars", "favorite",
}

func TestSQLStore_List(t *testing.T) {
	s, mock := newMockStore(t)

	risk := 20
	q, _ := Build(Filter{MaxRisk: &risk})
	mock.ExpectQuery(regexp.QuoteMeta(s.db.Rebind(q))).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(hostingCols).
			AddRow(1, "Alpha", "https://a.example", "ok", 5, nil, nil, "IS", nil, 3.5, false).
			AddRow(2, "Bravo", nil, nil, 20, nil, nil, nil, "NL", nil, true))

	mock.ExpectQuery(`SELECT hc.hosting_id, c.category_id, c.category_name .* WHERE hc.hosting_id IN \(\$1, \$2\)`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"hosting_id", "category_id", "category_name"}).
			AddRow(2, 7, "Crypto"))

	got, err := s.List(context.Background(), Filter{MaxRisk: &risk})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Alpha" || got[1].Name != "Bravo" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if got[0].URL == nil || *got[0].URL != "https://a.example" || got[1].URL != nil {
		t.Fatalf("url scan wrong: %#v", got)
	}
	if len(got[1].Categories) != 1 || got[1].Categories[0].Name != "Crypto" {
		t.Fatalf("categories not attached: %#v", got[1].Categories)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLBatch_InsertDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO hosting (`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "hosting_hosting_name_key"})
	mock.ExpectRollback()

	b, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_, err = b.Insert(context.Background(), &Hosting{Name: "Alpha"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if err := b.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLBatch_InsertReturningAndSavepoints(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT row_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`RETURNING hosting_id`)).
		WithArgs("Alpha", "https://a.example", nil, nil, nil, nil, nil, nil, 4.0, false).
		WillReturnRows(sqlmock.NewRows([]string{"hosting_id"}).AddRow(11))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO hosting_category (hosting_id, category_id) VALUES ($1, $2)`)).
		WithArgs(int64(11), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT row_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	b, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := b.Savepoint(ctx, "row_1"); err != nil {
		t.Fatalf("Savepoint: %v", err)
	}
	price := 4.0
	h := &Hosting{Name: "Alpha", URL: Str("https://a.example"), MinPriceUSD: &price}
	id, err := b.Insert(ctx, h)
	if err != nil || id != 11 || h.ID != 11 {
		t.Fatalf("Insert = %d, %v", id, err)
	}
	if err := b.Link(ctx, id, 2); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := b.Release(ctx, "row_1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLBatch_RejectsBadSavepointName(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	b, _ := s.Begin(context.Background())
	if err := b.Savepoint(context.Background(), "x; DROP TABLE hosting"); err == nil {
		t.Fatalf("expected error for unsafe savepoint name")
	}
}

func TestSQLStore_NameExists(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT hosting_id FROM hosting WHERE hosting_name = $1`)).
		WithArgs("Alpha").
		WillReturnRows(sqlmock.NewRows([]string{"hosting_id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT hosting_id FROM hosting WHERE hosting_name = $1`)).
		WithArgs("Nope").
		WillReturnRows(sqlmock.NewRows([]string{"hosting_id"}))

	ctx := context.Background()
	b, _ := s.Begin(ctx)
	if ok, err := b.NameExists(ctx, "Alpha"); err != nil || !ok {
		t.Fatalf("NameExists(Alpha) = %v, %v", ok, err)
	}
	if ok, err := b.NameExists(ctx, "Nope"); err != nil || ok {
		t.Fatalf("NameExists(Nope) = %v, %v", ok, err)
	}
}
