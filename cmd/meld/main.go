// Command meld is a thin host around the core interpreter (spec.md
// §1 Non-goals: "a full CLI/editor-integration surface is out of
// scope" — this wires real capability implementations to internal/interp
// and nothing more). Grounded on the teacher's cmd/devcmd cobra
// root/subcommand layout.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meld-lang/meld/internal/config"
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/interp"
	"github.com/meld-lang/meld/internal/lockfile"
)

var (
	configPath   string
	lockPath     string
	approveAll   bool
	projectAlias string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "meld",
	Short: "Render a meld document through the core interpreter",
}

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Evaluate a meld file and print the rendered output",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "meld.config.yaml", "Path to meld config file")
	rootCmd.PersistentFlags().StringVar(&lockPath, "lockfile", "meld.lock.yaml", "Path to the lock file")
	rootCmd.PersistentFlags().BoolVar(&approveAll, "approve-all", false, "Approve every untrusted fetch/import non-interactively")
	rootCmd.PersistentFlags().StringVar(&projectAlias, "project-alias", "project", "Leading segment for @<alias>/ project-path resolution")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	file := args[0]
	absFile, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	basePath := filepath.Dir(absFile)

	fsys := osFileSystem{}

	cfg := config.Default()
	if data, err := os.ReadFile(configPath); err == nil {
		cfg, err = config.Load(data)
		if err != nil {
			return fmt.Errorf("meld: invalid config %s: %w", configPath, err)
		}
	}
	if approveAll {
		cfg.Import.ApproveAll = true
	}

	lock, err := lockfile.Load(fsys, lockPath)
	if err != nil {
		return fmt.Errorf("meld: invalid lock file %s: %w", lockPath, err)
	}

	ip := interp.New(interp.Capabilities{
		FS:        fsys,
		HTTP:      httpFetcher{},
		Approver:  newCLIApprover(approveAll),
		Immutable: &fetch.FileImmutableCache{FS: fsys, Dir: filepath.Join(basePath, ".meld-cache")},
		Runtime:   fetch.NewTTLRuntimeCache(),
		Clock:     systemClock{},
		IDs:       &blake2bIDGenerator{},
		Parser:    unimplementedParser{},
	}, interp.Options{
		BasePath:     basePath,
		ProjectAlias: projectAlias,
		Config:       cfg,
		LockFile:     lock,
	})

	source, err := os.ReadFile(absFile)
	if err != nil {
		return err
	}

	out, err := ip.Run(context.Background(), source, absFile)
	if err != nil {
		return err
	}
	if err := lock.Save(fsys, lockPath); err != nil {
		return fmt.Errorf("meld: failed to persist lock file: %w", err)
	}
	fmt.Print(out)
	return nil
}
