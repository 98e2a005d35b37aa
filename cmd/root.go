// Package cmd implements the codemods command line.
package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/agentic-research/codemods/internal/config"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

// options are shared by every subcommand.
type options struct {
	verbosity  int
	configPath string
	root       string

	cfg *config.Config
	log logr.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{log: logr.Discard()}
	cmd := &cobra.Command{
		Use:           "codemods",
		Short:         "Migrate Python code from legacy dagster APIs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
	}
	pf := cmd.PersistentFlags()
	pf.CountVarP(&o.verbosity, "verbose", "v", "Log verbosity (repeat for more)")
	pf.StringVar(&o.configPath, "config", config.DefaultPath, "Path to HCL config file")
	pf.StringVarP(&o.root, "root", "C", ".", "Directory that paths are resolved against")

	cmd.AddCommand(newRunCmd(o), newListCmd(), newCheckCmd(o), newMCPCmd(o), newJournalCmd(o))
	return cmd
}

func (o *options) setup(cmd *cobra.Command) error {
	stdr.SetVerbosity(o.verbosity)
	o.log = stdr.New(log.New(cmd.ErrOrStderr(), "", log.LstdFlags))

	cfg, err := config.Load(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// filesystem returns the filesystem rooted at --root and args expressed
// relative to it. No args means the whole root.
func (o *options) filesystem(args []string) (billy.Filesystem, []string, error) {
	root, err := filepath.Abs(o.root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root: %w", err)
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	paths := make([]string, 0, len(args))
	for _, a := range args {
		if filepath.IsAbs(a) {
			rel, err := filepath.Rel(root, a)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return nil, nil, fmt.Errorf("%s is outside root %s", a, root)
			}
			a = rel
		}
		paths = append(paths, filepath.ToSlash(filepath.Clean(a)))
	}
	return osfs.New(root), paths, nil
}

var rootCmd = newRootCmd()

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
