// Package startup brings lexa from "not configured" to "ready for the
// host loop".
//
// The sequence is fixed and fail-fast:
//
//  1. attach diagnostic logging (debug builds only, Info and above)
//  2. resolve the app-local-data directory
//  3. build the salt path <data dir>/salt.txt
//  4. initialize the Argon2id secret store seeded by the salt file
//
// Any failure aborts the sequence; nothing after the failing step runs
// and no partially initialized App is returned.
package startup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/lexaledger/lexa/internal/apppaths"
	"github.com/lexaledger/lexa/internal/buildmode"
	"github.com/lexaledger/lexa/internal/constants"
	"github.com/lexaledger/lexa/internal/host"
	"github.com/lexaledger/lexa/internal/kdf"
	"github.com/lexaledger/lexa/internal/logger"
	"github.com/lexaledger/lexa/internal/secretstore"
)

// Errors
var (
	ErrPathResolution  = errors.New("could not resolve app local data path")
	ErrSecretStoreInit = errors.New("could not initialize secret store")
)

// DiagnosticLevel is the minimum severity of the debug-build log sink.
const DiagnosticLevel = slog.LevelInfo

// Options configures a Sequencer.
type Options struct {
	// Mode decides whether diagnostics are attached
	Mode buildmode.Mode
	// Resolver locates the app-local-data directory
	Resolver apppaths.Resolver
	// KDF holds the Argon2id cost parameters
	KDF kdf.Params
	// GOOS selects the secret store backend (defaults to runtime.GOOS)
	GOOS string
	// NewBackend builds the secret store (defaults to secretstore.New)
	NewBackend func(goos string, deriver secretstore.KeyDeriver) (secretstore.Backend, error)
	// LogOutput is the diagnostic sink writer (defaults to os.Stderr)
	LogOutput io.Writer
	// LogJSON selects JSON diagnostics
	LogJSON bool
}

// App is the result of a successful startup.
type App struct {
	Mode     buildmode.Mode
	DataDir  string
	SaltPath string
	KDF      *kdf.Argon2
	Store    secretstore.Backend
}

// Step is one stage of the startup sequence.
type Step struct {
	Name string
	Run  func(app *App) error
}

// Sequencer runs the startup steps in order.
type Sequencer struct {
	opts  Options
	steps []Step
}

// New returns a Sequencer for opts.
func New(opts Options) *Sequencer {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.NewBackend == nil {
		opts.NewBackend = secretstore.New
	}

	s := &Sequencer{opts: opts}
	s.steps = []Step{
		{Name: "diagnostics", Run: s.attachDiagnostics},
		{Name: "app-paths", Run: s.resolvePaths},
		{Name: "salt-path", Run: s.buildSaltPath},
		{Name: "secret-store", Run: s.initSecretStore},
	}
	return s
}

// Steps returns the step names in execution order.
func (s *Sequencer) Steps() []string {
	names := make([]string, len(s.steps))
	for i, step := range s.steps {
		names[i] = step.Name
	}
	return names
}

// Run executes every step, stopping at the first failure.
func (s *Sequencer) Run() (*App, error) {
	app := &App{Mode: s.opts.Mode}
	for _, step := range s.steps {
		if err := step.Run(app); err != nil {
			logger.Error("startup aborted", "step", step.Name, "error", err)
			return nil, err
		}
		logger.Info("startup step complete", "step", step.Name)
	}
	return app, nil
}

func (s *Sequencer) attachDiagnostics(app *App) error {
	if app.Mode != buildmode.Debug {
		return nil
	}
	logger.Init(logger.Options{
		Level:  DiagnosticLevel,
		Output: s.opts.LogOutput,
		JSON:   s.opts.LogJSON,
	})
	return nil
}

func (s *Sequencer) resolvePaths(app *App) error {
	if s.opts.Resolver == nil {
		return fmt.Errorf("%w: no resolver configured", ErrPathResolution)
	}
	dir, err := s.opts.Resolver.AppLocalDataDir()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPathResolution, err)
	}
	if dir == "" {
		return fmt.Errorf("%w: resolver returned an empty path", ErrPathResolution)
	}
	app.DataDir = dir
	return nil
}

func (s *Sequencer) buildSaltPath(app *App) error {
	app.SaltPath = SaltPath(app.DataDir)
	return nil
}

func (s *Sequencer) initSecretStore(app *App) error {
	salt, err := kdf.LoadOrCreateSalt(app.SaltPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSecretStoreInit, err)
	}
	deriver, err := kdf.NewArgon2(salt, s.opts.KDF)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSecretStoreInit, err)
	}
	backend, err := s.opts.NewBackend(s.opts.GOOS, deriver)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSecretStoreInit, err)
	}

	app.KDF = deriver
	app.Store = backend
	logger.Info("secret store ready", "backend", backend.Name(), "salt", app.SaltPath)
	return nil
}

// SaltPath returns the salt file location inside dataDir.
func SaltPath(dataDir string) string {
	return filepath.Join(dataDir, constants.SaltFileName)
}

// Launch runs the sequence and, only if it succeeds, hands control to loop.
func Launch(ctx context.Context, s *Sequencer, loop host.Loop) error {
	if _, err := s.Run(); err != nil {
		return err
	}
	return loop.Run(ctx)
}
