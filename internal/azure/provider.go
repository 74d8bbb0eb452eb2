// Package azure provides the resource inventory provider and environment
// detection for azsh. The concrete provider shells out to the az CLI, which is
// preinstalled and preauthenticated in Cloud Shell.
package azure

import (
	"context"
	"errors"
	"fmt"
)

// Account is the active subscription summary (az account show).
type Account struct {
	Name     string
	ID       string
	TenantID string
	User     string
	UserType string
	Cloud    string
	State    string
}

// Subscription is one entry from az account list.
type Subscription struct {
	Name      string
	ID        string
	IsDefault bool
}

// Resource is a single resource within a resource group.
type Resource struct {
	Name     string
	Type     string
	Location string
}

// ResourceGroup is a resource group with its contained resources.
type ResourceGroup struct {
	Name              string
	Location          string
	ProvisioningState string
	Tags              map[string]string
	Resources         []Resource
}

// VirtualMachine is a VM summary (az vm list -d).
type VirtualMachine struct {
	Name          string
	ResourceGroup string
	Location      string
	Size          string
	OSType        string
	PowerState    string
	PublicIPs     string
	PrivateIPs    string
}

// NodePool is one agent pool of an AKS cluster.
type NodePool struct {
	Name   string
	Count  int
	VMSize string
}

// Cluster is an AKS cluster summary.
type Cluster struct {
	Name              string
	KubernetesVersion string
	FQDN              string
	ProvisioningState string
	Pools             []NodePool
}

// NotFoundError reports that a named resource does not exist in the active
// subscription. Callers distinguish it from transport failures: a missing
// resource is a normal answer, not an outage.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

// IsNotFound returns true if err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Provider is the inventory query contract. All queries are scoped to the
// active subscription.
type Provider interface {
	Account(ctx context.Context) (*Account, error)
	Subscriptions(ctx context.Context) ([]Subscription, error)
	SetSubscription(ctx context.Context, nameOrID string) error
	ResourceGroup(ctx context.Context, name string) (*ResourceGroup, error)
	VirtualMachine(ctx context.Context, name string) (*VirtualMachine, error)
	Cluster(ctx context.Context, name string) (*Cluster, error)
	Resources(ctx context.Context, group string) ([]Resource, error)
}
