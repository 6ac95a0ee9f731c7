package actor

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/hedisam/actorcell/config"
	"github.com/hedisam/actorcell/deploy"
	"github.com/hedisam/actorcell/internal/logging"
	"github.com/hedisam/actorcell/path"
)

// GuardianName is the top level element under which user actors live.
const GuardianName = "user"

// System owns the guardian actor every user actor descends from.
type System struct {
	settings *config.Settings
	provider *LocalProvider
	root     *path.Path
	guardian *localActor
	logger   zerolog.Logger
}

// NewSystem starts an actor system. nil settings means config.Default(); an empty system
// name gets a unique generated one.
func NewSystem(settings *config.Settings) (*System, error) {
	if settings == nil {
		settings = config.Default()
	}
	if settings.System == "" {
		named := *settings
		named.System = "actorcell-" + xid.New().String()
		settings = &named
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("actor system: %w", err)
	}
	logging.SetLevel(settings.LogLevel)

	provider, err := NewLocalProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("actor system: %w", err)
	}
	root := path.Root(settings.System)
	guardianPath := root.Child(GuardianName, path.UndefinedUID)
	guardianProps := PropsFromFunc(func(*Context, interface{}) {})
	guardian := newLocalActor(provider, guardianProps, nil, guardianPath, deploy.Local, false, false)
	if err := guardian.initialize(); err != nil {
		return nil, fmt.Errorf("actor system: %w", err)
	}
	guardian.Start()

	s := &System{
		settings: settings,
		provider: provider,
		root:     root,
		guardian: guardian,
		logger:   logging.Logger("system").With().Str("system", settings.System).Logger(),
	}
	s.logger.Info().Str("guardian", guardianPath.String()).Msg("actor system started")
	return s, nil
}

func (s *System) Name() string {
	return s.settings.System
}

func (s *System) Settings() *config.Settings {
	return s.settings
}

// Guardian returns the parent of all top level actors.
func (s *System) Guardian() Ref {
	return s.guardian
}

// ActorOf creates a top level actor.
func (s *System) ActorOf(props *Props, name string) (Ref, error) {
	return s.guardian.cell.ActorOf(props, name)
}

// Spawn creates a top level actor under a generated name.
func (s *System) Spawn(props *Props) (Ref, error) {
	return s.guardian.cell.Spawn(props)
}

// Stop stops a top level actor.
func (s *System) Stop(ref Ref) {
	s.guardian.cell.Stop(ref)
}

// Child resolves a top level actor by "name" or "name#uid".
func (s *System) Child(name string) (Ref, bool) {
	return s.guardian.cell.TryGetSingleChild(name)
}

// Shutdown stops every actor and waits until they are gone or ctx is done.
func (s *System) Shutdown(ctx context.Context) error {
	s.guardian.Stop()
	select {
	case <-s.guardian.Done():
		s.logger.Info().Msg("actor system stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("actor system shutdown: %w", ctx.Err())
	}
}

// Root returns the root path of the system.
func (s *System) Root() *path.Path {
	return s.root
}
