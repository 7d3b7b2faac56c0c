package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dorepo/internal/config"
	"github.com/mesh-intelligence/dorepo/internal/paths"
	"github.com/mesh-intelligence/dorepo/pkg/dorepo"
	"github.com/mesh-intelligence/dorepo/pkg/irs"
	"github.com/mesh-intelligence/dorepo/pkg/repository"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app carries flag values and lazily opened resources for one invocation.
type app struct {
	configDir string
	dataDir   string
	jsonOut   bool
	verbose   bool

	stdout io.Writer
	stderr io.Writer

	cfgFile *config.File
	logger  *slog.Logger
	repo    *repository.Repository
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if cerr := a.close(); err == nil && cerr != nil {
		err = sysError("close", cerr)
	}
	if err == nil {
		return exitSuccess
	}

	fmt.Fprintln(stderr, err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Cobra argument and flag errors.
	return exitUserError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "dorepo",
		Short:         "dorepo stores, resolves and relates digital objects",
		Version:       dorepo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every repository operation")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newConfigCmd(a),
		newGenerateCmd(a),
		newCreateCmd(a),
		newGetCmd(a),
		newResolveCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newRelateCmd(a),
		newRelationsCmd(a),
		newExportCmd(a),
		newRestoreCmd(a),
		newImportCmd(a),
		newOpsCmd(a),
	)
	return root
}

// setup resolves the config directory, loads config.yaml and configures
// logging.
func (a *app) setup() error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError("resolve config dir", err)
	}
	f, err := config.Load(configDir)
	if err != nil {
		return sysError("load config", err)
	}
	a.cfgFile = f
	return nil
}

// resolveDataDir applies flag > config.yaml > env > CWD precedence.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.dataDir, a.cfgFile.DataDir())
}

// repository opens the repository on first use. run closes it.
func (a *app) repository() (*repository.Repository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, sysError("resolve data dir", err)
	}
	cfg, err := a.cfgFile.Repository(dataDir)
	if err != nil {
		return nil, userError("config", err)
	}
	repo, err := repository.Open(cfg, repository.WithLogger(a.logger))
	if err != nil {
		return nil, classify("open repository", err)
	}
	a.repo = repo
	return repo, nil
}

// service returns an identifier service bound to the repository.
func (a *app) service() (*irs.Service, error) {
	repo, err := a.repository()
	if err != nil {
		return nil, err
	}
	return irs.New(repo, irs.WithLogger(a.logger)), nil
}

func (a *app) close() error {
	if a.repo == nil {
		return nil
	}
	err := a.repo.Close()
	a.repo = nil
	return err
}
