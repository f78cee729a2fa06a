package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// completeResourceTypes lists the resource types of the loaded catalog.
func completeResourceTypes(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	types := models.AllResourceTypes()
	if Catalog != nil {
		types = Catalog.ResourceTypes()
	}
	var out []string
	for _, rt := range types {
		if strings.HasPrefix(string(rt), toComplete) {
			out = append(out, string(rt))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeRoles returns the dashboard roles.
func completeRoles(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"developer\tLatency, errors and logs",
		"operator\tCapacity and saturation",
		"executive\tAvailability at a glance",
		"security\tAccess and rejection signals",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeSeverities returns the alarm severities.
func completeSeverities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"critical\tPages immediately",
		"warning\tNeeds attention soon",
		"info\tRecorded only",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeEnvironments returns the deployment environments.
func completeEnvironments(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"prod", "staging", "dev"}, cobra.ShellCompDirectiveNoFileComp
}

// completeIdentifiers lists manifest identifiers. When a resource type is
// already on the command line only identifiers of that type are offered.
func completeIdentifiers(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Manifest == nil || Manifest.Load() != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for _, r := range Manifest.Resources() {
		if len(args) > 0 && string(r.Type) != args[0] {
			continue
		}
		if strings.HasPrefix(r.Identifier, toComplete) {
			out = append(out, r.Identifier+"\t"+string(r.Type))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeTypeThenIdentifier completes "<type> <identifier>" argument pairs.
func completeTypeThenIdentifier(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return completeResourceTypes(cmd, args, toComplete)
	case 1:
		return completeIdentifiers(cmd, args, toComplete)
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeFirstArg applies fn to the first positional argument only.
func completeFirstArg(fn func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return fn(cmd, args, toComplete)
	}
}
