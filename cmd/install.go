package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autopilot/internal/install"
)

var (
	installBinary    string
	installUninstall bool
)

var installCmd = &cobra.Command{
	Use:     "install",
	Short:   "Register the hook commands in .claude/settings.json",
	GroupID: "work",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		binary := installBinary
		if binary == "" {
			binary = "autopilot"
			if exe, err := os.Executable(); err == nil {
				binary = exe
			}
		}

		if installUninstall {
			removed, err := install.Uninstall(env.root, binary)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				cmd.Println("No autopilot hooks were installed")
				return nil
			}
			cmd.Printf("Removed hooks: %s\n", strings.Join(removed, ", "))
			return nil
		}

		added, err := install.Install(env.root, binary)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			cmd.Println("Hooks already installed")
			return nil
		}
		cmd.Printf("Installed hooks in %s: %s\n", install.SettingsPath(env.root), strings.Join(added, ", "))
		return nil
	},
}

func init() {
	installCmd.Flags().StringVar(&installBinary, "binary", "", "command the hooks run (default: this executable)")
	installCmd.Flags().BoolVar(&installUninstall, "uninstall", false, "remove the hooks instead")
	rootCmd.AddCommand(installCmd)
}
