package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/homelibrarian/homelibrarian/internal/api"
	"github.com/homelibrarian/homelibrarian/internal/config"
	"github.com/homelibrarian/homelibrarian/internal/di"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// app carries the global flags and the lazily built container.
type app struct {
	flags    config.Flags
	output   string
	out      io.Writer
	injector *do.RootScope
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout}
	a.flags.Version = version

	root := &cobra.Command{
		Use:   "homelib",
		Short: "Home Librarian - catalog, shelve, lend and discover your books",
		Long: `Home Librarian keeps track of the physical books in a family home.

Catalog books by ISBN or cover photo, organize them into rooms, shelves and
boxes, lend them to friends, follow what each family member reads and get
age-appropriate recommendations.

Run "homelib serve" to start the local HTTP API.`,
		SilenceUsage:  true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch a.output {
			case outputText, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("invalid output %q (must be text, json or yaml)", a.output)
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.Env, "env", "", "environment: development, production or test")
	pf.StringVar(&a.flags.EnvFile, "env-file", "", "dotenv file to load (default .env)")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.flags.DataDir, "data-dir", "", "data directory (default ~/.homelib)")
	pf.StringVar(&a.flags.Store, "store", "", "store backend: badger, file, sqlite, postgres, redis or memory")
	pf.StringVar(&a.flags.StorePath, "store-path", "", "store location for file-based backends")
	pf.StringVarP(&a.output, "output", "o", outputText, "output format: text, json or yaml")

	root.AddCommand(
		newServeCmd(a),
		newSetupCmd(a),
		newLocationCmd(a),
		newBookCmd(a),
		newLoanCmd(a),
		newUserCmd(a),
		newRecommendCmd(a),
		newSearchCmd(a),
		newBackupCmd(a),
		newExportCmd(a),
		newDoctorCmd(a),
		newResetCmd(a),
	)

	return root
}

// container builds the DI container on first use.
func (a *app) container() *do.RootScope {
	if a.injector == nil {
		a.injector = di.NewContainer(a.flags)
	}
	return a.injector
}

// libraryFunc is a one-shot command body.
type libraryFunc func(cmd *cobra.Command, args []string, lib *api.Services) error

// withLibrary opens the catalog for one command and closes it afterwards,
// whether or not the command succeeded.
func (a *app) withLibrary(fn libraryFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); err == nil {
				err = cerr
			}
		}()
		lib, err := di.Library(a.container())
		if err != nil {
			return err
		}
		return fn(cmd, args, lib)
	}
}

func (a *app) close() error {
	if a.injector == nil {
		return nil
	}
	injector := a.injector
	a.injector = nil
	return shutdownErr(injector.Shutdown())
}

// shutdownErr turns a container shutdown report into an error. The report is
// never nil, so only a failed shutdown counts.
func shutdownErr(report *do.ShutdownReport) error {
	if report == nil || report.Succeed {
		return nil
	}
	return report
}

// structured reports whether results should be printed as data.
func (a *app) structured() bool {
	return a.output == outputJSON || a.output == outputYAML
}

// emit prints v as JSON or YAML. It is a no-op for text output.
func (a *app) emit(v any) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		// Round-trip through JSON so field names match the API.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	}
	return nil
}

// printf writes formatted text output.
func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// table prints rows with a header line.
func (a *app) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(a.out, t.String())
}
