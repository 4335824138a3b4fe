package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// target is a board the cli is deployed to.
type target struct {
	os   string
	arch string
}

var targets = map[string]target{
	"native": {os: runtime.GOOS, arch: runtime.GOARCH},
	"nanopi": {os: "linux", arch: "arm"},
	"rpi":    {os: "linux", arch: "arm64"},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the ecprobe cli",
		Long: `Build the ecprobe cli into dist/ecprobe.

Native builds use the local go toolchain. Board targets are cross-compiled
in a docker image because the MCP2221 usb bridge support needs cgo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := cmd.Flags().GetString("target")
			if err != nil {
				return fmt.Errorf("could not get target flag: %w", err)
			}
			t, ok := targets[name]
			if !ok {
				return fmt.Errorf("unknown target %q", name)
			}
			version := cmd.Flag("version").Value.String()
			crossOs := cmd.Flag("cross-os").Value.String()
			crossArch := cmd.Flag("cross-arch").Value.String()

			// inside the build container the target is passed as cross-os/cross-arch
			if t.os == runtime.GOOS && t.arch == runtime.GOARCH {
				if crossOs != "" && crossArch != "" {
					t = target{os: crossOs, arch: crossArch}
				}
				slog.Info("building", "os", t.os, "arch", t.arch, "version", version)
				return build.GoBuild("dist/ecprobe", "./cmd/ecprobe", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "github.com/mklimuk/ecprobe/pkg/config",
					EnableCgo:     true,
					Arch:          t.arch,
					OS:            t.os,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			slog.Info("cross-compiling in docker", "target", name, "os", t.os, "arch", t.arch)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", t.os, t.arch), []string{"build", "--version", version, "--cross-os", t.os, "--cross-arch", t.arch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("target", "native", "build target: native, nanopi or rpi")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")

	return cmd
}
