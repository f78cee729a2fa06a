package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/storage"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

var (
	resourcesType string
	resourcesEnv  string
	resourcesTags []string
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Manage the resource manifest",
}

var resourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resources in the manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manifest == nil {
			return fmt.Errorf("manifest not initialized")
		}
		if err := Manifest.Load(); err != nil {
			return err
		}

		tags, err := parseTags(resourcesTags)
		if err != nil {
			return err
		}
		filter := storage.ManifestFilter{
			Environment: models.Environment(resourcesEnv),
			Tags:        tags,
		}
		if resourcesType != "" {
			filter.Types = []models.ResourceType{models.ResourceType(resourcesType)}
		}

		out := cmd.OutOrStdout()
		resources := Manifest.Filter(filter)
		if len(resources) == 0 {
			fmt.Fprintln(out, "No resources found.")
			return nil
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-20s %-32s %-8s %s", "TYPE", "IDENTIFIER", "ENV", "TAGS")))
		for _, r := range resources {
			env := string(r.Environment)
			if env == "" {
				env = mutedStyle.Render(string(ObsConfig.Environment))
			}
			fmt.Fprintf(out, "%-20s %-32s %-8s %s\n", r.Type, r.Identifier, env, formatTags(r.Tags))
		}
		return nil
	},
}

var resourcesAddCmd = &cobra.Command{
	Use:   "add <type> <identifier>",
	Short: "Add a resource to the manifest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manifest == nil {
			return fmt.Errorf("manifest not initialized")
		}
		if resourcesEnv != "" && !models.Environment(resourcesEnv).Valid() {
			return fmt.Errorf("invalid --env %q: must be one of prod, staging, dev", resourcesEnv)
		}
		tags, err := parseTags(resourcesTags)
		if err != nil {
			return err
		}
		if err := Manifest.Load(); err != nil {
			return err
		}

		desc := models.ResourceDescriptor{
			Type:        models.ResourceType(args[0]),
			Identifier:  args[1],
			Environment: models.Environment(resourcesEnv),
			Tags:        tags,
		}
		cat := Catalog
		if cat != nil && !cat.Known(desc.Type) {
			Logger.Warn().Str("resource_type", args[0]).Msg("resource type has no catalog rows and will not be monitored")
		}

		if err := Manifest.Add(desc); err != nil {
			return err
		}
		if err := Manifest.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s/%s to %s\n", desc.Type, desc.Identifier, Manifest.Path())
		return nil
	},
}

var resourcesRemoveCmd = &cobra.Command{
	Use:   "remove <type> <identifier>",
	Short: "Remove a resource from the manifest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manifest == nil {
			return fmt.Errorf("manifest not initialized")
		}
		if err := Manifest.Load(); err != nil {
			return err
		}
		if err := Manifest.Remove(models.ResourceType(args[0]), args[1]); err != nil {
			return err
		}
		if err := Manifest.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s/%s from %s\n", args[0], args[1], Manifest.Path())
		return nil
	},
}

// parseTags turns "key=value" flags into a map.
func parseTags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	tags := make(map[string]string, len(raw))
	for _, t := range raw {
		k, v, ok := strings.Cut(t, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid tag %q: expected key=value", t)
		}
		tags[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return tags, nil
}

func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for k, v := range tags {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func init() {
	resourcesListCmd.Flags().StringVar(&resourcesType, "type", "", "Only resources of this type")
	resourcesListCmd.Flags().StringVar(&resourcesEnv, "env", "", "Only resources in this environment")
	resourcesListCmd.Flags().StringSliceVar(&resourcesTags, "tag", nil, "Only resources with this tag (key=value, repeatable)")

	resourcesAddCmd.Flags().StringVar(&resourcesEnv, "env", "", "Environment (prod, staging, dev); defaults to the manifest default")
	resourcesAddCmd.Flags().StringSliceVar(&resourcesTags, "tag", nil, "Tag to attach (key=value, repeatable)")

	_ = resourcesListCmd.RegisterFlagCompletionFunc("type", completeResourceTypes)
	_ = resourcesListCmd.RegisterFlagCompletionFunc("env", completeEnvironments)
	_ = resourcesAddCmd.RegisterFlagCompletionFunc("env", completeEnvironments)
	resourcesAddCmd.ValidArgsFunction = completeFirstArg(completeResourceTypes)
	resourcesRemoveCmd.ValidArgsFunction = completeTypeThenIdentifier

	resourcesCmd.AddCommand(resourcesListCmd, resourcesAddCmd, resourcesRemoveCmd)
	rootCmd.AddCommand(resourcesCmd)
}
