package azure

import (
	"context"
	"testing"
	"time"
)

// resourceStub implements Provider returning fixed resources, signalling each
// Resources call on done.
type resourceStub struct {
	fakeProvider
	resources []Resource
	done      chan struct{}
}

func (s *resourceStub) Resources(context.Context, string) ([]Resource, error) {
	defer func() { s.done <- struct{}{} }()
	return s.resources, nil
}

func TestResourceCachePrefetchAndCompletions(t *testing.T) {
	stub := &resourceStub{
		resources: []Resource{
			{Name: "web-01", Type: "Microsoft.Compute/virtualMachines", Location: "eastus"},
			{Name: "prod", Type: "Microsoft.ContainerService/managedClusters", Location: "eastus"},
			{Name: "legacy-thing", Type: "Microsoft.Unknown/widgets", Location: "eastus"},
		},
		done: make(chan struct{}, 2),
	}

	cache := NewResourceCache(stub)
	cache.SetActiveGroup("prod-east")

	select {
	case <-stub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("prefetch never ran")
	}

	// The prefetch goroutine publishes under the cache mutex after signalling;
	// poll briefly for the snapshot to land.
	var completions []Completion
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		completions = cache.Completions()
		if len(completions) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if cache.ActiveGroup() != "prod-east" {
		t.Errorf("ActiveGroup() = %q", cache.ActiveGroup())
	}
	if len(completions) != 2 {
		t.Fatalf("Completions() = %+v, want 2 (unknown type skipped)", completions)
	}
	if completions[0].Mention != "@vm:web-01" || completions[1].Mention != "@aks:prod" {
		t.Errorf("Completions() = %+v", completions)
	}
}

func TestResourceCacheEmptyByDefault(t *testing.T) {
	cache := NewResourceCache(&fakeProvider{})
	if cache.ActiveGroup() != "" {
		t.Errorf("ActiveGroup() = %q, want empty", cache.ActiveGroup())
	}
	if got := cache.Completions(); len(got) != 0 {
		t.Errorf("Completions() = %+v, want none", got)
	}
}
