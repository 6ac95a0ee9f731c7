package actor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hedisam/actorcell/config"
	"github.com/hedisam/actorcell/deploy"
	"github.com/hedisam/actorcell/internal/logging"
	"github.com/hedisam/actorcell/path"
)

// Provider constructs the actor behind a freshly reserved child name. The returned ref
// must not run before Start is called on it.
type Provider interface {
	ActorOf(props *Props, parent Ref, childPath *path.Path, systemService bool, d *deploy.Deploy, async bool) (Ref, error)
}

// LocalProvider creates goroutine backed actors in this process.
type LocalProvider struct {
	settings *config.Settings
	deployer *deploy.Deployer
	logger   zerolog.Logger
}

// NewLocalProvider builds a provider from settings; nil means config.Default().
func NewLocalProvider(settings *config.Settings) (*LocalProvider, error) {
	if settings == nil {
		settings = config.Default()
	}
	deployer, err := deploy.NewDeployer(settings.Deployment)
	if err != nil {
		return nil, fmt.Errorf("local provider: %w", err)
	}
	return &LocalProvider{
		settings: settings,
		deployer: deployer,
		logger:   logging.Logger("provider"),
	}, nil
}

// ActorOf implements Provider. Unless async is set the receiver is built and PreStart
// runs before returning, so their errors fail the call.
func (p *LocalProvider) ActorOf(props *Props, parent Ref, childPath *path.Path, systemService bool, d *deploy.Deploy, async bool) (Ref, error) {
	if props == nil {
		return nil, ErrNilProps
	}
	resolved := p.resolveDeploy(props, childPath, d)
	if scope := resolved.ResolvedScope(); scope != deploy.LocalScope {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedScope, scope, childPath)
	}

	a := newLocalActor(p, props, parent, childPath, resolved, systemService, async)
	if !async {
		if err := a.initialize(); err != nil {
			a.mailbox.Dispose()
			return nil, fmt.Errorf("create %s: %w", childPath, err)
		}
	}
	p.logger.Debug().
		Str("path", childPath.StringWithUID()).
		Stringer("deploy", resolved).
		Bool("system_service", systemService).
		Msg("actor constructed")
	return a, nil
}

// resolveDeploy layers the explicit deployment over the configured one, then the
// props' own, then the local default.
func (p *LocalProvider) resolveDeploy(props *Props, childPath *path.Path, d *deploy.Deploy) *deploy.Deploy {
	layers := make([]*deploy.Deploy, 0, 4)
	if d != nil {
		layers = append(layers, d)
	}
	if configured, ok := p.deployer.Lookup(childPath); ok {
		layers = append(layers, configured)
	}
	if props.Deploy() != nil {
		layers = append(layers, props.Deploy())
	}
	layers = append(layers, deploy.Local)

	resolved := layers[0]
	for _, fallback := range layers[1:] {
		resolved = resolved.WithFallback(fallback)
	}
	return resolved
}

func (p *LocalProvider) mailboxCapacity(d *deploy.Deploy) uint64 {
	return p.settings.MailboxCapacityFor(d.Mailbox())
}
