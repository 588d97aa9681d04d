package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kgpack/internal/config"
	"kgpack/internal/pack"
)

// NewPackCmd creates the "pack" command group: build, install, uninstall,
// list, validate.
func NewPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Build, install, and manage knowledge pack archives",
	}

	cmd.AddCommand(newPackBuildCmd())
	cmd.AddCommand(newPackInstallCmd())
	cmd.AddCommand(newPackUninstallCmd())
	cmd.AddCommand(newPackListCmd())
	cmd.AddCommand(newPackValidateCmd())

	return cmd
}

func newPackBuildCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "build <pack-dir>",
		Short: "Package a pack directory into a distributable .tar.gz",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dir := args[0]

			skillPath := filepath.Join(dir, "skill.md")
			if _, err := os.Stat(skillPath); os.IsNotExist(err) {
				manifest, merr := pack.LoadManifest(filepath.Join(dir, "manifest.json"))
				if merr != nil {
					return fmt.Errorf("skill.md missing and manifest.json unreadable: %w", merr)
				}
				if werr := os.WriteFile(skillPath, []byte(pack.GenerateSkillMarkdown(manifest)), 0o644); werr != nil {
					return fmt.Errorf("writing generated skill.md: %w", werr)
				}
			}

			if out == "" {
				manifest, err := pack.LoadManifest(filepath.Join(dir, "manifest.json"))
				if err != nil {
					return fmt.Errorf("reading manifest.json: %w", err)
				}
				out = manifest.Name + ".tar.gz"
			}

			if err := pack.PackagePack(dir, out); err != nil {
				return fmt.Errorf("packaging pack: %w", err)
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output tarball path (default: <name>.tar.gz)")
	return cmd
}

func newPackInstallCmd() *cobra.Command {
	var installDir string

	cmd := &cobra.Command{
		Use:   "install <archive>",
		Short: "Install a pack archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dir := resolveInstallDir(installDir)
			installer := &pack.PackInstaller{InstallDir: dir}
			if err := installer.Install(args[0]); err != nil {
				return fmt.Errorf("installing pack: %w", err)
			}
			fmt.Printf("installed into %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&installDir, "install-dir", "", "override the configured install directory")
	return cmd
}

func newPackUninstallCmd() *cobra.Command {
	var installDir string

	cmd := &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove an installed pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dir := resolveInstallDir(installDir)
			installer := &pack.PackInstaller{InstallDir: dir}
			if err := installer.Uninstall(args[0]); err != nil {
				return fmt.Errorf("uninstalling pack: %w", err)
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&installDir, "install-dir", "", "override the configured install directory")
	return cmd
}

func newPackListCmd() *cobra.Command {
	var installDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packs",
		RunE: func(c *cobra.Command, args []string) error {
			dir := resolveInstallDir(installDir)
			reg, err := pack.NewPackRegistry(dir)
			if err != nil {
				return fmt.Errorf("reading pack registry: %w", err)
			}
			for _, name := range reg.ListPacks() {
				fmt.Println(name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&installDir, "install-dir", "", "override the configured install directory")
	return cmd
}

func newPackValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pack-dir>",
		Short: "Validate a pack directory's structure and manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := pack.ValidatePackStructure(args[0]); err != nil {
				return err
			}
			manifest, err := pack.LoadManifest(filepath.Join(args[0], "manifest.json"))
			if err != nil {
				return err
			}
			if err := pack.ValidateManifest(manifest); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func resolveInstallDir(override string) string {
	if override != "" {
		return override
	}
	return config.Get().Pack.InstallDir
}
