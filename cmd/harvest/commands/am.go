package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: short("am"),
	Long: sym.AM + ` am - Show and validate configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/harvest/am.toml)
3. User config (~/.harvest/am.toml)
4. Project config (./am.toml, searched up the directory tree)
5. --config <file>
6. .env file and environment variables (HARVEST_* prefix)

The portal credentials may also come from the legacy variables URL_ARIBA,
ARIBA_LOGIN and ARIBA_PASSWORD.

Examples:
  harvest am show                    # Effective configuration (TOML)
  harvest am show --format json
  harvest am show --sources          # Where every value came from
  harvest am validate                # Check settings and credentials
  harvest am init                    # Write a starter ./am.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration merged from all sources. The portal password is redacted.",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Check every setting and that the three portal credentials are present",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Long:  "Write the default configuration to ./am.toml (or path). Credentials are left empty; put them in .env.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var (
	configFormat string
	showSources  bool
	initForce    bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().BoolVar(&showSources, "sources", false, "Show the source of every setting")
	amInitCmd.Flags().BoolVar(&initForce, "force", false, "Replace an existing file (a backup is kept)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if showSources {
		return printSources(cmd)
	}

	settings, err := am.Effective()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	data, err := am.Render(settings, configFormat)
	if err != nil {
		return err
	}
	if configFormat != "json" {
		fmt.Println("# harvest configuration")
	}
	fmt.Print(string(data))
	return nil
}

func printSources(cmd *cobra.Command) error {
	_, jsonOutput := outputFlags(cmd)

	settings, err := am.Introspect()
	if err != nil {
		return errors.Wrap(err, "failed to inspect config")
	}

	if jsonOutput {
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	for _, s := range settings {
		source := pterm.Gray(fmt.Sprintf("[%s]", s.Source))
		if s.Source != am.SourceDefault {
			source = pterm.LightCyan(fmt.Sprintf("[%s] %s", s.Source, s.SourcePath))
		}
		pterm.Printf("  %-32s %-24v %s\n", s.Key, s.Value, source)
	}
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.DefaultConfigName
	if len(args) == 1 {
		path = args[0]
	}
	if err := am.WriteStarter(path, initForce); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %s", path)
	pterm.Info.Println("Set HARVEST_PORTAL_URL, HARVEST_PORTAL_LOGIN and HARVEST_PORTAL_PASSWORD in .env")
	return nil
}
