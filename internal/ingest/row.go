package ingest

import (
	"context"
	"strings"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/sheet"
)

// Columns maps catalog attributes to header labels.  An empty label, or one
// the sheet lacks, leaves the attribute absent.
type Columns struct {
	Name            string `koanf:"name"`
	Price           string `koanf:"price"`
	Status          string `koanf:"status"`
	Risk            string `koanf:"risk"`
	Advantages      string `koanf:"advantages"`
	Disadvantages   string `koanf:"disadvantages"`
	HostingLocation string `koanf:"hosting_location"`
	ServersLocation string `koanf:"servers_location"`
}

// DefaultColumns are the headers of the operators' catalog sheets.
var DefaultColumns = Columns{
	Name:            "Хостинг",
	Price:           "Минимальная цена",
	Status:          "Статус",
	Risk:            "Значение риска proxycheck.io (APIv3)",
	Advantages:      "Преимущества",
	Disadvantages:   "Недостатки",
	HostingLocation: "Расположение хостинга",
	ServersLocation: "Расположение серверов",
}

// withDefaults fills empty labels from DefaultColumns.
func (c Columns) withDefaults() Columns {
	def := DefaultColumns
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Columns{
		Name:            pick(c.Name, def.Name),
		Price:           pick(c.Price, def.Price),
		Status:          pick(c.Status, def.Status),
		Risk:            pick(c.Risk, def.Risk),
		Advantages:      pick(c.Advantages, def.Advantages),
		Disadvantages:   pick(c.Disadvantages, def.Disadvantages),
		HostingLocation: pick(c.HostingLocation, def.HostingLocation),
		ServersLocation: pick(c.ServersLocation, def.ServersLocation),
	}
}

// URLResolver rewrites a url before it is stored.
type URLResolver interface {
	Resolve(ctx context.Context, raw string) string
}

// Normalizer turns sheet rows into hostings for one table layout.
type Normalizer struct {
	name, price, status, risk        int
	advantages, disadvantages        int
	hostingLocation, serversLocation int
	messagingBase                    string
	resolver                         URLResolver
}

// NewNormalizer resolves the column labels against t's headers once.
// resolver may be nil.
func NewNormalizer(t *sheet.Table, cols Columns, messagingBase string, resolver URLResolver) *Normalizer {
	cols = cols.withDefaults()
	return &Normalizer{
		name:            t.Column(cols.Name),
		price:           t.Column(cols.Price),
		status:          t.Column(cols.Status),
		risk:            t.Column(cols.Risk),
		advantages:      t.Column(cols.Advantages),
		disadvantages:   t.Column(cols.Disadvantages),
		hostingLocation: t.Column(cols.HostingLocation),
		serversLocation: t.Column(cols.ServersLocation),
		messagingBase:   messagingBase,
		resolver:        resolver,
	}
}

// Normalize converts r.  Text attributes are trimmed and empty ones become
// absent; bounded fields are truncated later by the store.
func (n *Normalizer) Normalize(ctx context.Context, r sheet.Row) catalog.Hosting {
	text := func(i int) *string {
		return catalog.Str(strings.TrimSpace(r.Cell(i).Text))
	}

	name, url := ParseNameCell(r.Cell(n.name), n.messagingBase)
	if url != nil && n.resolver != nil {
		resolved := n.resolver.Resolve(ctx, *url)
		url = &resolved
	}

	return catalog.Hosting{
		Name:            name,
		URL:             url,
		Status:          text(n.status),
		Risk:            ParseRisk(r.Cell(n.risk).Text),
		Advantages:      text(n.advantages),
		Disadvantages:   text(n.disadvantages),
		HostingLocation: text(n.hostingLocation),
		ServersLocation: text(n.serversLocation),
		MinPriceUSD:     ParsePrice(r.Cell(n.price).Text),
	}
}
