package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marmos91/cafefs/internal/cli/output"
	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/session"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell on the volume",
	Long: `Open an interactive shell that keeps one client registered for its
whole lifetime, so the working directory and the fatal-error latch persist
between commands. When metrics are enabled the health and metrics server
runs alongside the shell.

Type "help" inside the shell for the list of commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			logger.Error("Session shutdown error", logger.Err(err))
		}
	}()

	if srv := s.Server(); srv != nil {
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("Health server failed", logger.Err(err))
			}
		}()
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		sh := newShell(ctx, s, cmd.OutOrStdout(), format)
		return sh.runLines(cmd.InOrStdin())
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer func() { _ = term.Restore(fd, state) }()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "")
	sh := newShell(ctx, s, t, format)
	return sh.runTerminal(t)
}

// shell executes one command line at a time against a session.
type shell struct {
	ctx     context.Context
	sess    *session.Session
	vol     *session.Volume
	out     io.Writer
	printer *output.Printer
}

func newShell(ctx context.Context, s *session.Session, out io.Writer, format output.Format) *shell {
	return &shell{
		ctx:     ctx,
		sess:    s,
		vol:     session.NewVolume(s.Client),
		out:     out,
		printer: output.NewPrinter(out, format, false),
	}
}

func (sh *shell) prompt() string {
	cwd, err := sh.vol.Cwd()
	if err != nil {
		cwd = "?"
	}
	return "cafefs:" + cwd + "> "
}

// runLines reads commands from r until EOF or exit. The prompt is not
// printed.
func (sh *shell) runLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if quit := sh.execLine(scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

func (sh *shell) runTerminal(t *term.Terminal) error {
	for {
		t.SetPrompt(sh.prompt())
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := sh.execLine(line); quit {
			return nil
		}
	}
}

// execLine runs one line and reports errors inline. It returns true when
// the shell should exit.
func (sh *shell) execLine(line string) bool {
	quit, err := sh.exec(strings.Fields(line))
	if err != nil {
		_, _ = fmt.Fprintf(sh.out, "error: %v\n", err)
		if sh.vol.Client().IsFatal() {
			_, _ = fmt.Fprintln(sh.out, `client is latched; type "recover" to clear it`)
		}
	}
	return quit
}

const shellHelp = `Commands:
  cd <dir>              change the working directory
  pwd                   print the working directory
  ls [dir]              list a directory
  stat <path>...        show status records
  cat <path>            print a file
  put <local> <path>    copy a host file into the volume
  get <path> <local>    copy a file out of the volume
  mkdir [-p] <dir>      create a directory
  rm [-r] <path>        remove a file or directory
  mv <old> <new>        rename
  df [dir]              free space, used bytes and entry count
  settings              show the system product settings
  recover               clear a latched fatal error
  exit                  leave the shell
`

func (sh *shell) exec(argv []string) (bool, error) {
	if len(argv) == 0 {
		return false, nil
	}
	name, args := argv[0], argv[1:]

	need := func(lo, hi int) error {
		if len(args) < lo || (hi >= 0 && len(args) > hi) {
			return fmt.Errorf("%s: wrong number of arguments", name)
		}
		return nil
	}

	switch name {
	case "exit", "quit":
		return true, nil
	case "help":
		_, err := io.WriteString(sh.out, shellHelp)
		return false, err
	case "pwd":
		return false, printCwd(sh.vol, sh.out)
	case "cd":
		if err := need(1, 1); err != nil {
			return false, err
		}
		return false, sh.vol.ChangeDir(args[0])
	case "ls":
		if err := need(0, 1); err != nil {
			return false, err
		}
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return false, listDir(sh.vol, sh.printer, dir)
	case "stat":
		if err := need(1, -1); err != nil {
			return false, err
		}
		return false, statPaths(sh.ctx, sh.vol, sh.printer, args)
	case "cat":
		if err := need(1, 1); err != nil {
			return false, err
		}
		return false, catFile(sh.vol, sh.out, args[0])
	case "put":
		if err := need(2, 2); err != nil {
			return false, err
		}
		return false, sh.put(args[0], args[1])
	case "get":
		if err := need(2, 2); err != nil {
			return false, err
		}
		return false, sh.get(args[0], args[1])
	case "mkdir":
		parents, rest := flagged(args, "-p")
		if len(rest) != 1 {
			return false, fmt.Errorf("mkdir: wrong number of arguments")
		}
		return false, makeDir(sh.vol, rest[0], parents)
	case "rm":
		recursive, rest := flagged(args, "-r")
		if len(rest) != 1 {
			return false, fmt.Errorf("rm: wrong number of arguments")
		}
		return false, removePath(sh.vol, rest[0], recursive)
	case "mv":
		if err := need(2, 2); err != nil {
			return false, err
		}
		return false, sh.vol.Rename(args[0], args[1])
	case "df":
		if err := need(0, 1); err != nil {
			return false, err
		}
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return false, diskUsage(sh.vol, sh.printer, dir)
	case "settings":
		cur, err := readSettings(sh.ctx, sh.sess.Settings)
		if err != nil {
			return false, err
		}
		return false, sh.printer.Print(output.NewSettings(cur))
	case "recover":
		c := sh.vol.Client()
		if !c.IsFatal() {
			_, err := fmt.Fprintln(sh.out, "client is not latched")
			return false, err
		}
		reason := c.LastError()
		c.ClearFatalError()
		_, err := fmt.Fprintf(sh.out, "cleared fatal error (%s)\n", reason)
		return false, err
	}
	return false, fmt.Errorf("unknown command %q (type \"help\")", name)
}

func (sh *shell) put(local, remote string) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	n, err := sh.vol.WriteFrom(remote, f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(sh.out, "%d bytes written\n", n)
	return err
}

func (sh *shell) get(remote, local string) error {
	f, err := os.Create(local)
	if err != nil {
		return err
	}
	n, err := sh.vol.ReadTo(remote, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(sh.out, "%d bytes read\n", n)
	return err
}

// flagged strips flag from args and reports whether it was present.
func flagged(args []string, flag string) (bool, []string) {
	found := false
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == flag {
			found = true
			continue
		}
		rest = append(rest, a)
	}
	return found, rest
}
