package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	. "github.com/roelfdiedericks/azsh/internal/logging"
)

// CLIProvider implements Provider by invoking the az CLI with JSON output.
type CLIProvider struct {
	timeout time.Duration

	// run is swappable for tests. It executes az with the given arguments
	// plus --output json and returns stdout.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewCLIProvider creates a provider backed by the az CLI. timeoutSeconds
// bounds each invocation; 0 uses the 10 second default.
func NewCLIProvider(timeoutSeconds int) *CLIProvider {
	timeout := 10 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	p := &CLIProvider{timeout: timeout}
	p.run = p.runAZ
	return p
}

func (p *CLIProvider) runAZ(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	full := append(args, "--output", "json")
	L_trace("azure: az invocation", "args", strings.Join(full, " "))

	cmd := exec.CommandContext(ctx, "az", full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			L_warn("azure: az timed out", "args", args[0], "timeout", p.timeout)
			return nil, fmt.Errorf("timed out after %v", p.timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		L_debug("azure: az failed", "args", strings.Join(args, " "), "error", msg)
		return nil, fmt.Errorf("az %s failed: %s", args[0], firstLine(msg))
	}

	L_trace("azure: az completed", "elapsed", elapsed, "bytes", stdout.Len())
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// az JSON shapes. Only the fields azsh renders are decoded.

type azAccount struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	CloudName string `json:"cloudName"`
	State     string `json:"state"`
	IsDefault bool   `json:"isDefault"`
	User      struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"user"`
}

type azGroup struct {
	Name       string            `json:"name"`
	Location   string            `json:"location"`
	Tags       map[string]string `json:"tags"`
	Properties struct {
		ProvisioningState string `json:"provisioningState"`
	} `json:"properties"`
}

type azResource struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

type azVM struct {
	Name            string `json:"name"`
	ResourceGroup   string `json:"resourceGroup"`
	Location        string `json:"location"`
	PowerState      string `json:"powerState"`
	PublicIPs       string `json:"publicIps"`
	PrivateIPs      string `json:"privateIps"`
	HardwareProfile struct {
		VMSize string `json:"vmSize"`
	} `json:"hardwareProfile"`
	StorageProfile struct {
		OSDisk struct {
			OSType string `json:"osType"`
		} `json:"osDisk"`
	} `json:"storageProfile"`
}

type azCluster struct {
	Name              string `json:"name"`
	KubernetesVersion string `json:"kubernetesVersion"`
	FQDN              string `json:"fqdn"`
	ProvisioningState string `json:"provisioningState"`
	AgentPoolProfiles []struct {
		Name   string `json:"name"`
		Count  int    `json:"count"`
		VMSize string `json:"vmSize"`
	} `json:"agentPoolProfiles"`
}

// Account returns the active subscription summary.
func (p *CLIProvider) Account(ctx context.Context) (*Account, error) {
	out, err := p.run(ctx, "account", "show")
	if err != nil {
		return nil, err
	}
	var acct azAccount
	if err := json.Unmarshal(out, &acct); err != nil {
		return nil, fmt.Errorf("failed to parse az account output: %w", err)
	}
	return &Account{
		Name:     acct.Name,
		ID:       acct.ID,
		TenantID: acct.TenantID,
		User:     acct.User.Name,
		UserType: acct.User.Type,
		Cloud:    acct.CloudName,
		State:    acct.State,
	}, nil
}

// Subscriptions lists all subscriptions visible to the signed-in user.
func (p *CLIProvider) Subscriptions(ctx context.Context) ([]Subscription, error) {
	out, err := p.run(ctx, "account", "list")
	if err != nil {
		return nil, err
	}
	var accts []azAccount
	if err := json.Unmarshal(out, &accts); err != nil {
		return nil, fmt.Errorf("failed to parse az account list output: %w", err)
	}
	subs := make([]Subscription, 0, len(accts))
	for _, a := range accts {
		subs = append(subs, Subscription{Name: a.Name, ID: a.ID, IsDefault: a.IsDefault})
	}
	return subs, nil
}

// SetSubscription switches the active subscription.
func (p *CLIProvider) SetSubscription(ctx context.Context, nameOrID string) error {
	_, err := p.run(ctx, "account", "set", "--subscription", nameOrID)
	return err
}

// ResourceGroup returns a resource group and its contained resources.
func (p *CLIProvider) ResourceGroup(ctx context.Context, name string) (*ResourceGroup, error) {
	out, err := p.run(ctx, "group", "show", "-n", name)
	if err != nil {
		if looksLikeNotFound(err) {
			return nil, &NotFoundError{Kind: "resource group", Name: name}
		}
		return nil, err
	}
	var group azGroup
	if err := json.Unmarshal(out, &group); err != nil {
		return nil, fmt.Errorf("failed to parse az group output: %w", err)
	}

	resources, err := p.Resources(ctx, name)
	if err != nil {
		// Group metadata alone is still useful context
		L_debug("azure: resource list failed", "group", name, "error", err)
		resources = nil
	}

	return &ResourceGroup{
		Name:              group.Name,
		Location:          group.Location,
		ProvisioningState: group.Properties.ProvisioningState,
		Tags:              group.Tags,
		Resources:         resources,
	}, nil
}

// Resources lists the resources in a group.
func (p *CLIProvider) Resources(ctx context.Context, group string) ([]Resource, error) {
	out, err := p.run(ctx, "resource", "list", "-g", group)
	if err != nil {
		return nil, err
	}
	var raw []azResource
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse az resource list output: %w", err)
	}
	resources := make([]Resource, 0, len(raw))
	for _, r := range raw {
		resources = append(resources, Resource{Name: r.Name, Type: r.Type, Location: r.Location})
	}
	return resources, nil
}

// VirtualMachine returns a VM by name, searched across the subscription.
func (p *CLIProvider) VirtualMachine(ctx context.Context, name string) (*VirtualMachine, error) {
	out, err := p.run(ctx, "vm", "list", "-d", "--query", fmt.Sprintf("[?name=='%s']", name))
	if err != nil {
		return nil, err
	}
	var vms []azVM
	if err := json.Unmarshal(out, &vms); err != nil {
		return nil, fmt.Errorf("failed to parse az vm list output: %w", err)
	}
	if len(vms) == 0 {
		return nil, &NotFoundError{Kind: "VM", Name: name}
	}
	vm := vms[0]
	return &VirtualMachine{
		Name:          vm.Name,
		ResourceGroup: vm.ResourceGroup,
		Location:      vm.Location,
		Size:          vm.HardwareProfile.VMSize,
		OSType:        vm.StorageProfile.OSDisk.OSType,
		PowerState:    vm.PowerState,
		PublicIPs:     vm.PublicIPs,
		PrivateIPs:    vm.PrivateIPs,
	}, nil
}

// Cluster returns an AKS cluster by name, searched across the subscription.
func (p *CLIProvider) Cluster(ctx context.Context, name string) (*Cluster, error) {
	out, err := p.run(ctx, "aks", "list", "--query", fmt.Sprintf("[?name=='%s']", name))
	if err != nil {
		return nil, err
	}
	var clusters []azCluster
	if err := json.Unmarshal(out, &clusters); err != nil {
		return nil, fmt.Errorf("failed to parse az aks list output: %w", err)
	}
	if len(clusters) == 0 {
		return nil, &NotFoundError{Kind: "AKS cluster", Name: name}
	}
	c := clusters[0]
	cluster := &Cluster{
		Name:              c.Name,
		KubernetesVersion: c.KubernetesVersion,
		FQDN:              c.FQDN,
		ProvisioningState: c.ProvisioningState,
	}
	for _, pool := range c.AgentPoolProfiles {
		cluster.Pools = append(cluster.Pools, NodePool{
			Name:   pool.Name,
			Count:  pool.Count,
			VMSize: pool.VMSize,
		})
	}
	return cluster, nil
}

// looksLikeNotFound matches az CLI stderr for missing-resource failures so
// they can be reported as NotFoundError rather than provider errors.
func looksLikeNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not be found") ||
		strings.Contains(msg, "resourcegroupnotfound") ||
		strings.Contains(msg, "resourcenotfound")
}
