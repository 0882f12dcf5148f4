package cmd

import (
	"fmt"

	"example.com/textile/erp/internal/version"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display the version, build information, and runtime environment of the ERP service.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Println("Textile ERP")
		fmt.Println("===========")
		fmt.Printf("Version:    %s\n", info.Version)
		fmt.Printf("Git Commit: %s\n", info.GitCommit)
		fmt.Printf("Built:      %s\n", info.BuildTime)
		fmt.Printf("Go Version: %s\n", info.GoVersion)
		fmt.Printf("OS/Arch:    %s\n", info.Platform)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
