package deploy

import (
	"fmt"
	"strings"

	"github.com/hedisam/actorcell/config"
	"github.com/hedisam/actorcell/path"
)

// Deployer resolves configured deployments by actor path.
type Deployer struct {
	deployments map[string]*Deploy
}

// NewDeployer converts the settings' deployment table.
func NewDeployer(settings map[string]config.DeploymentSettings) (*Deployer, error) {
	d := &Deployer{deployments: make(map[string]*Deploy, len(settings))}
	for p, s := range settings {
		dep, err := fromSettings(p, s)
		if err != nil {
			return nil, err
		}
		d.deployments[p] = dep
	}
	return d, nil
}

func fromSettings(p string, s config.DeploymentSettings) (*Deploy, error) {
	cfg, err := ParseConfig(s.Config)
	if err != nil {
		return nil, fmt.Errorf("deployment %q: %w", p, err)
	}
	dep := New(p).
		WithDispatcher(s.Dispatcher).
		WithMailbox(s.Mailbox).
		WithConfig(cfg)
	switch strings.ToLower(strings.TrimSpace(s.Scope)) {
	case "":
	case "local":
		dep = dep.WithScope(LocalScope)
	default:
		dep = dep.WithScope(NamedScope{Name: s.Scope})
	}
	if s.Router != "" {
		dep = dep.WithRouterConfig(Pool{Logic: s.Router, Instances: s.Instances})
	}
	return dep, nil
}

// Lookup returns the deployment configured for p, keyed by its elements below the root.
func (d *Deployer) Lookup(p *path.Path) (*Deploy, bool) {
	if d == nil {
		return nil, false
	}
	dep, ok := d.deployments["/"+strings.Join(p.Elements(), "/")]
	return dep, ok
}
