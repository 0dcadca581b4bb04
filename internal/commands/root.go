// internal/commands/root.go
//
// hostcat-import – command tree.
//
// Context
// -------
// The importer shares conf/hostcat.yaml with the web server.  Opening the
// config, the logger, and the store is deferred to an Opener so tests can
// run the same commands against catalog.MemoryStore.
//
//	hostcat-import import FILE [--categories 1,2] [--dry-run] [--favorite] [--resolve-redirects]
//	hostcat-import categories list
//	hostcat-import categories add NAME...
//
// Notes
// -----
//   - Flags override the `import` config section only when given.
//   - A non-nil error from Execute means exit status 1.
package commands

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/config"
)

// Env is what every command runs against.
type Env struct {
	Config *config.Config
	Store  catalog.Store
	Log    *zap.Logger
}

// Opener builds the Env on first use.  The returned func releases it.
type Opener func(cmd *cobra.Command) (*Env, func(), error)

// NewRoot returns the command tree writing human output to out.
func NewRoot(open Opener, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "hostcat-import",
		Short:         "Load hosting spreadsheets into the hostcat catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(newImportCmd(open))
	root.AddCommand(newCategoriesCmd(open))
	return root
}
