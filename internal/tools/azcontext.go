package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roelfdiedericks/azsh/internal/azure"
)

// AzureContextTool reports the current Azure identity and subscription to the
// agent.
type AzureContextTool struct {
	provider azure.Provider
}

// NewAzureContextTool creates the tool backed by the given provider.
func NewAzureContextTool(provider azure.Provider) *AzureContextTool {
	return &AzureContextTool{provider: provider}
}

func (t *AzureContextTool) Name() string {
	return "get_azure_context"
}

func (t *AzureContextTool) Description() string {
	return "Get the current Azure context including signed-in user, active " +
		"subscription, and tenant information."
}

func (t *AzureContextTool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *AzureContextTool) Execute(ctx context.Context, _ json.RawMessage) (string, error) {
	acct, err := t.provider.Account(ctx)
	if err != nil {
		// The agent can act on this; it is an answer, not a tool failure
		return fmt.Sprintf(
			"Error: Failed to get Azure context. %s\n"+
				"Make sure the Azure CLI is installed and you are logged in (run 'az login').",
			err), nil
	}

	return fmt.Sprintf(
		"Subscription: %s\n"+
			"Subscription ID: %s\n"+
			"Tenant ID: %s\n"+
			"User: %s (%s)\n"+
			"Cloud: %s\n"+
			"State: %s",
		orNA(acct.Name), orNA(acct.ID), orNA(acct.TenantID),
		orNA(acct.User), orNA(acct.UserType), orNA(acct.Cloud), orNA(acct.State)), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
