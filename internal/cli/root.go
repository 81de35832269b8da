// Package cli provides the command-line interface for recipebox.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/raphaelgruber/recipebox/internal/app"
	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/service"
	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// API is what the commands need. Both the HTTP client and the in-process
// service implement it.
type API interface {
	CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	ImportContent(ctx context.Context, filePath, content string, opts service.ImportOptions) (*service.ImportResult, error)
	Graph(ctx context.Context, recipeID string) (*service.GraphView, error)

	ListSteps(ctx context.Context, recipeID string) ([]models.StepSummary, error)
	GetStep(ctx context.Context, recipeID, stepID string) (*models.StepSummary, error)
	CreateStep(ctx context.Context, recipeID string, req stepgraph.CreateStepRequest) (*models.RecipeStep, error)
	DeleteStep(ctx context.Context, recipeID, stepID string) error
	MoveStep(ctx context.Context, recipeID, stepID string, dir stepgraph.Direction) (bool, error)

	ParseIngredients(ctx context.Context, text string) ([]models.ParsedIngredient, error)
	AddIngredients(ctx context.Context, recipeID, stepID, text string) ([]models.Ingredient, error)
	ListIngredients(ctx context.Context, recipeID, stepID string) ([]models.Ingredient, error)
}

var (
	_ API = (*client.Client)(nil)
	_ API = (*service.RecipeService)(nil)
)

// env is the state shared by all commands of one invocation.
type env struct {
	// Global flags
	verbose   bool
	memory    bool
	serverURL string

	api     API
	watcher *client.Client // nil in --memory mode
	theme   Theme
	cleanup []func()

	// isTerminal reports whether stdin is interactive.
	isTerminal func() bool
}

// Option customizes the root command, mainly for tests.
type Option func(*env)

// WithAPI runs every command against api instead of connecting.
func WithAPI(api API) Option {
	return func(e *env) { e.api = api }
}

// WithTerminal overrides stdin TTY detection.
func WithTerminal(interactive bool) Option {
	return func(e *env) { e.isTerminal = func() bool { return interactive } }
}

// NewRootCmd builds the recipebox command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	e := &env{theme: defaultTheme, isTerminal: stdinIsTerminal}
	for _, opt := range opts {
		opt(e)
	}
	injected := e.api != nil

	rootCmd := &cobra.Command{
		Use:   "recipebox",
		Short: "Manage recipe steps and the dependencies between them",
		Long: `Recipebox stores recipes as numbered steps. A step can use the output of
earlier steps; recipebox keeps those dependencies consistent when steps are
added, deleted or moved.

Commands talk to a recipebox-server (RECIPEBOX_SERVER_URL). With --memory
they run against a throwaway in-memory store instead.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip connection for version and help commands
			if cmd.Name() == "version" || cmd.Name() == "help" || injected {
				return nil
			}
			return e.connect(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			for _, fn := range e.cleanup {
				fn()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&e.memory, "memory", false, "use an in-memory store instead of the server")
	rootCmd.PersistentFlags().StringVar(&e.serverURL, "server", "", "server URL (default $RECIPEBOX_SERVER_URL)")

	rootCmd.AddCommand(newRecipeCmd(e))
	rootCmd.AddCommand(newStepCmd(e))
	rootCmd.AddCommand(newIngredientsCmd(e))
	rootCmd.AddCommand(newImportCmd(e))
	rootCmd.AddCommand(newWatchCmd(e))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// connect picks the in-process service for --memory, otherwise the server.
func (e *env) connect(ctx context.Context) error {
	cfg := config.Load()
	if e.serverURL == "" {
		e.serverURL = cfg.ServerURL
	}

	if !e.memory {
		c := client.New(e.serverURL)
		e.api, e.watcher = c, c
		return nil
	}

	cfg.LogLevel = slog.LevelWarn
	if e.verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	logger, closeLog := config.SetupLogger(cfg, "cli")
	e.cleanup = append(e.cleanup, func() { _ = closeLog() })

	a, err := app.New(ctx, cfg, logger, app.Options{Memory: true})
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	e.cleanup = append(e.cleanup, func() { _ = a.Close(context.Background()) })
	e.api = a.Service
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recipebox %s\n", Version)
		},
	}
}

// Execute runs the CLI. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// reportedError marks an error whose message the command already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error { return reportedError{err: err} }

// AlreadyReported reports whether err was printed by the command that
// returned it, so the caller only needs to set the exit code.
func AlreadyReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// printf writes to the command's output.
func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
