package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/api"
	"github.com/smokyabdulrahman/prayer-compass/internal/config"
	"github.com/smokyabdulrahman/prayer-compass/internal/display"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long: "Without a subcommand, shows the configuration in effect.\n" +
			"Every key can also be set through PRAYER_COMPASS_<KEY> environment variables.",
		RunE: runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf(`Set a configuration value. Valid keys: %s

Examples:
  prayer-compass config set city Istanbul
  prayer-compass config set country Turkey
  prayer-compass config set language tr
  prayer-compass config set reminder_minutes 15
  prayer-compass config set prayers fajr,dhuhr,asr,maghrib,isha`,
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the config file",
		RunE:  runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})

	return cmd
}

// runConfigShow lists every key as resolved from the file and the
// environment. Flags are not applied here.
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	if FlagJSON {
		out := make(map[string]string, len(config.ValidKeys))
		for _, key := range config.ValidKeys {
			out[key], _ = cfg.Get(key)
		}
		return printJSON(out)
	}

	fmt.Printf("\n  %s %s\n\n", display.Bold("Configuration"), display.Dim(path))
	tbl := display.NewTable("Key", "Value")
	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		if val == "" {
			tbl.AddRow(display.RowPast, key, "(not set)")
			continue
		}
		tbl.AddRow(display.RowPlain, key, describeValue(key, val))
	}
	fmt.Print(tbl.Render())
	fmt.Println()
	return nil
}

// describeValue labels numeric method and school ids.
func describeValue(key, val string) string {
	id, err := strconv.Atoi(val)
	if err != nil {
		return val
	}
	var name string
	var ok bool
	switch key {
	case "method":
		name, ok = api.MethodName(id)
	case "school":
		name, ok = api.SchoolName(id)
	}
	if !ok {
		return val
	}
	return fmt.Sprintf("%s (%s)", val, name)
}

// runConfigSet writes one key to the file. Environment overrides are not
// persisted.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.ReadFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	fmt.Printf("Set %s = %s\n", key, describeValue(key, value))
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	if err := config.ResetAt(path); err != nil {
		return err
	}
	fmt.Println("Configuration reset to defaults.")
	return nil
}

type methodJSON struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the calculation methods",
		Long:  "Print the provider's calculation methods. The one in effect is highlighted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active := effectiveConfig(cmd).MethodOrDefault(config.MethodTurkey)

			if FlagJSON {
				out := make([]methodJSON, 0, len(api.Methods))
				for _, m := range api.Methods {
					out = append(out, methodJSON{ID: m.ID, Name: m.Name, Active: m.ID == active})
				}
				return printJSON(out)
			}

			fmt.Println()
			tbl := display.NewTable("ID", "Name")
			for _, m := range api.Methods {
				style := display.RowPlain
				if m.ID == active {
					style = display.RowNext
				}
				tbl.AddRow(style, strconv.Itoa(m.ID), m.Name)
			}
			fmt.Print(tbl.Render())
			fmt.Println()
			fmt.Printf("  Select one with --method <ID> or `config set method <ID>`. Default: %d.\n\n", config.MethodTurkey)
			return nil
		},
	}
}
