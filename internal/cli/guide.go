package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/display"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

func newGuideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guide [prayer]",
		Short: "Show how each prayer is performed",
		Long:  "Print the rakat count and order of each daily prayer, or of a single one.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGuide,
	}
}

type guideJSON struct {
	Prayer string `json:"prayer"`
	Name   string `json:"name"`
	Rakats string `json:"rakats"`
	Detail string `json:"detail"`
}

func runGuide(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	lang, err := prayer.ParseLanguage(cfg.Language)
	if err != nil {
		return err
	}

	keys := prayer.Keys
	if len(args) > 0 {
		k, err := prayer.ParseKey(args[0])
		if err != nil {
			return err
		}
		keys = []prayer.Key{k}
	}

	if FlagJSON {
		out := make([]guideJSON, 0, len(keys))
		for _, k := range keys {
			r := prayer.Guide(k, lang)
			out = append(out, guideJSON{Prayer: k.String(), Name: k.Name(lang), Rakats: r.Rakats, Detail: r.Detail})
		}
		return printJSON(out)
	}

	fmt.Println()
	for _, k := range keys {
		r := prayer.Guide(k, lang)
		fmt.Printf("  %s  %s\n", display.Bold(k.Name(lang)), display.Cyan(r.Rakats))
		fmt.Printf("  %s\n\n", display.Dim(r.Detail))
	}
	return nil
}
