package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/cafefs/internal/cli/prompt"
	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/session"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>...",
	Short: "Show the status of one or more entries",
	Long: `Show the status record of each path. All paths are queried
concurrently through asynchronous commands.

Examples:
  cafefs stat /vol/save /vol/content
  cafefs stat -o json /vol/save/data.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		return withVolume(cmd, func(ctx context.Context, _ *session.Session, v *session.Volume) error {
			return statPaths(ctx, v, p, args)
		})
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "/"
		if len(args) == 1 {
			dir = args[0]
		}
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		return withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			return listDir(v, p, dir)
		})
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Write a file to standard output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			return catFile(v, cmd.OutOrStdout(), args[0])
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put <local-file|-> <path>",
	Short: "Copy a host file into the volume",
	Long: `Copy a host file into the volume. The file is written in chunks no
larger than fs.max_bytes_per_request. Use "-" to read standard input.

Examples:
  cafefs put save.dat /vol/save/00000001/save.dat
  tar c saves | cafefs put - /vol/save/backup.tar`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			src = f
		}
		return withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			n, err := v.WriteFrom(args[1], src)
			if err != nil {
				return err
			}
			logger.Info("File copied into volume", logger.Path(args[1]), logger.Bytes(uint64(n)))
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <path> [local-file]",
	Short: "Copy a file out of the volume",
	Long: `Copy a file out of the volume. Without a local file the content is
written to standard output.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return catCmd.RunE(cmd, args)
		}
		dst, err := os.Create(args[1])
		if err != nil {
			return err
		}
		err = withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			n, err := v.ReadTo(args[0], dst)
			if err != nil {
				return err
			}
			logger.Info("File copied out of volume", logger.Path(args[0]), logger.Bytes(uint64(n)))
			return nil
		})
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		return err
	},
}

var mkdirParents bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <dir>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			return makeDir(v, args[0], mkdirParents)
		})
	},
}

var (
	rmRecursive bool
	rmForce     bool
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a file or directory",
	Long: `Remove a file or an empty directory. With -r directories are removed
together with their contents after confirmation; --force skips the prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rmRecursive {
			ok, err := prompt.Confirm(fmt.Sprintf("Remove %s and everything below it", args[0]), rmForce)
			if err != nil {
				return err
			}
			if !ok {
				return prompt.ErrAborted
			}
		}
		return withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			return removePath(v, args[0], rmRecursive)
		})
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <old> <new>",
	Short: "Rename a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			return v.Rename(args[0], args[1])
		})
	},
}

var dfCmd = &cobra.Command{
	Use:   "df [dir]",
	Short: "Show free space, used bytes and entry count",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "/"
		if len(args) == 1 {
			dir = args[0]
		}
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		return withVolume(cmd, func(_ context.Context, _ *session.Session, v *session.Volume) error {
			return diskUsage(v, p, dir)
		})
	},
}

func init() {
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "Create missing parent directories")
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "Remove directories and their contents")
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Do not ask for confirmation")
}
