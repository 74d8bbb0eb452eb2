package azure

import (
	"context"
	"strings"
	"sync"

	. "github.com/roelfdiedericks/azsh/internal/logging"
)

// shortTypes maps Azure resource types to the short prefixes used for
// @mention completions.
var shortTypes = map[string]string{
	"microsoft.compute/virtualmachines":          "vm",
	"microsoft.containerservice/managedclusters": "aks",
	"microsoft.storage/storageaccounts":          "storage",
	"microsoft.web/sites":                        "webapp",
	"microsoft.sql/servers":                      "sql",
	"microsoft.network/virtualnetworks":          "vnet",
	"microsoft.network/networksecuritygroups":    "nsg",
	"microsoft.network/publicipaddresses":        "pip",
	"microsoft.network/loadbalancers":            "lb",
	"microsoft.keyvault/vaults":                  "kv",
	"microsoft.containerregistry/registries":     "acr",
	"microsoft.dbforpostgresql/flexibleservers":  "pg",
	"microsoft.dbformysql/flexibleservers":       "mysql",
	"microsoft.insights/components":              "appinsights",
	"microsoft.operationalinsights/workspaces":   "loganalytics",
}

// Completion is one @mention suggestion derived from cached resources.
type Completion struct {
	Mention     string // e.g. "@vm:web-01"
	Description string // e.g. "Microsoft.Compute/virtualMachines (eastus)"
}

// ResourceCache tracks the most recently mentioned resource group and
// prefetches its resources so the REPL can offer @mention completions.
// Prefetch runs in the background; failures leave the cache empty.
type ResourceCache struct {
	provider Provider

	mu        sync.Mutex
	activeRG  string
	resources []Resource
	cancel    context.CancelFunc
}

// NewResourceCache creates an empty cache backed by the given provider.
func NewResourceCache(provider Provider) *ResourceCache {
	return &ResourceCache{provider: provider}
}

// ActiveGroup returns the currently tracked resource group, or "".
func (c *ResourceCache) ActiveGroup() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRG
}

// SetActiveGroup records the active resource group and kicks off an
// asynchronous prefetch of its resources, cancelling any in-flight fetch.
func (c *ResourceCache) SetActiveGroup(name string) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.activeRG = name
	c.resources = nil
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		resources, err := c.provider.Resources(ctx, name)
		if err != nil {
			L_debug("azure: resource prefetch failed", "group", name, "error", err)
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// A later SetActiveGroup may have superseded this fetch
		if c.activeRG != name {
			return
		}
		c.resources = resources
		L_debug("azure: resources cached", "group", name, "count", len(resources))
	}()
}

// Completions returns @mention suggestions for the cached resources.
func (c *ResourceCache) Completions() []Completion {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Completion
	for _, r := range c.resources {
		short := shortTypes[strings.ToLower(r.Type)]
		if short == "" {
			continue
		}
		out = append(out, Completion{
			Mention:     "@" + short + ":" + r.Name,
			Description: r.Type + " (" + r.Location + ")",
		})
	}
	return out
}
