package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/orbit-planner/internal/gamify"
	"github.com/nhle/orbit-planner/internal/model"
)

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID matches arg against full task ids and unambiguous prefixes.
func resolveID(tasks []model.Task, arg string) (string, error) {
	var matches []string
	for _, t := range tasks {
		if t.ID == arg {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no task matches %q", arg)
	default:
		return "", fmt.Errorf("%q is ambiguous (%d matches)", arg, len(matches))
	}
}

// printAchievements announces achievements unlocked by the last
// operation, one per line, in unlock order.
func printAchievements(cmd *cobra.Command, keys []string) {
	for _, key := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "achievement unlocked: ")
		printAchievementLine(cmd.OutOrStdout(), key)
	}
}

// printAchievementLine renders a single achievement key with its
// catalog metadata, degrading gracefully for unknown keys.
func printAchievementLine(w io.Writer, key string) {
	if def, ok := gamify.CatalogByKey(key); ok {
		fmt.Fprintf(w, "%s %s: %s\n", def.Icon, def.Label, def.Description)
		return
	}
	fmt.Fprintf(w, "%s\n", key)
}
