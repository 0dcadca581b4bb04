// internal/catalog/query.go
//
// Filter → SQL.
//
// Build emits one SELECT against `hosting h` with `?` placeholders.  Stores
// pass the text through sqlx.Rebind for their driver, the same way the ACL
// helpers assembled IN (?, ?) clauses by hand.
//
// Substring predicates lowercase both sides and escape LIKE metacharacters
// with '!', which behaves the same on Postgres and MySQL.
package catalog

import "strings"

const selectHosting = `SELECT h.hosting_id, h.hosting_name, h.url, h.status, h.risk,
       h.advantages, h.disadvantages, h.hosting_location, h.servers_location,
       h.min_price_in_dollars, h.favorite
  FROM hosting h`

// Build returns the listing query for f and its arguments.
func Build(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if f.CategoryID != nil {
		where = append(where, `EXISTS (SELECT 1 FROM hosting_category hc
                WHERE hc.hosting_id = h.hosting_id AND hc.category_id = ?)`)
		args = append(args, *f.CategoryID)
	}
	if f.MaxPrice != nil {
		where = append(where, "h.min_price_in_dollars <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.NameContains != "" {
		where = append(where, "LOWER(h.hosting_name) LIKE ? ESCAPE '!'")
		args = append(args, likePattern(f.NameContains))
	}
	if f.FavoriteOnly {
		where = append(where, "h.favorite = ?")
		args = append(args, true)
	}
	if f.StatusContains != "" {
		where = append(where, "LOWER(h.status) LIKE ? ESCAPE '!'")
		args = append(args, likePattern(f.StatusContains))
	}
	if f.MaxRisk != nil {
		where = append(where, "h.risk <= ?")
		args = append(args, *f.MaxRisk)
	}
	if f.LocationContains != "" {
		p := likePattern(f.LocationContains)
		where = append(where, "(LOWER(h.hosting_location) LIKE ? ESCAPE '!' OR LOWER(h.servers_location) LIKE ? ESCAPE '!')")
		args = append(args, p, p)
	}

	var b strings.Builder
	b.WriteString(selectHosting)
	if len(where) > 0 {
		b.WriteString("\n WHERE ")
		b.WriteString(strings.Join(where, "\n   AND "))
	}
	b.WriteString("\n ORDER BY ")
	b.WriteString(orderBy(f.Sort))
	return b.String(), args
}

// orderBy renders the ORDER BY list.  `col IS NULL` sorts false before true
// on both dialects, which puts absent values last.
func orderBy(s Sort) string {
	sf := s.field()
	dir := ""
	if s.Desc {
		dir = " DESC"
	}
	if sf.column == "h.hosting_id" {
		return sf.column + dir
	}
	return sf.column + " IS NULL, " + sf.column + dir + ", h.hosting_id"
}

// likePattern lowercases term, escapes LIKE metacharacters, and wraps it
// in %…%.
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
