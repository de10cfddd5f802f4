package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/db"
	"github.com/teranos/harvest/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show harvest version information",
	Long:  `Display version, build time, commit hash, platform and checkpoint schema version.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, jsonOutput := outputFlags(cmd)

		info := version.Get().WithSchema(schemaVersion())

		if jsonOutput {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(output))
			return nil
		}

		fmt.Println(info.String())
		fmt.Printf("Platform: %s\n", info.Platform)
		fmt.Printf("Go: %s\n", info.GoVersion)
		if info.SchemaVersion != "" {
			fmt.Printf("Checkpoint schema: %s\n", info.SchemaVersion)
		}
		return nil
	},
}

// schemaVersion reads the migration level of an existing checkpoint database.
// It never creates one.
func schemaVersion() string {
	cfg, err := am.Load()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(cfg.Database.Path); err != nil {
		return ""
	}
	database, err := db.Open(cfg.Database.Path, nil)
	if err != nil {
		return ""
	}
	defer database.Close()
	v, _ := db.Version(database)
	return v
}
