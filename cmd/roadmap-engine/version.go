package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of roadmap-engine",
	Long: `Version prints the release version set at build time, the VCS revision
recorded by the go tool when the binary was built from a checkout, and the Go
version.`,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		writeVersion(os.Stdout, version, info)
	},
}

// writeVersion prints the version line followed by the build details found
// in info, which may be nil.
func writeVersion(w io.Writer, v string, info *debug.BuildInfo) {
	fmt.Fprintf(w, "roadmap-engine %s\n", v)
	goVersion := runtime.Version()
	if info == nil {
		fmt.Fprintf(w, "  go: %s\n", goVersion)
		return
	}
	if info.GoVersion != "" {
		goVersion = info.GoVersion
	}
	settings := map[string]string{}
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if rev := settings["vcs.revision"]; rev != "" {
		if settings["vcs.modified"] == "true" {
			rev += " (modified)"
		}
		fmt.Fprintf(w, "  revision: %s\n", rev)
	}
	fmt.Fprintf(w, "  go: %s\n", goVersion)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
