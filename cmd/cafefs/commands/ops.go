package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/marmos91/cafefs/internal/cli/output"
	"github.com/marmos91/cafefs/internal/session"
)

// The ops below are shared by the one-shot commands and the shell.

func statPaths(ctx context.Context, v *session.Volume, p *output.Printer, paths []string) error {
	results, err := v.StatMany(ctx, paths)
	if err != nil {
		return err
	}
	list := make(output.EntryList, 0, len(results))
	var firstErr error
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			list = append(list, output.Entry{Name: r.Path, Error: r.Err.Error()})
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		list = append(list, output.NewEntry(r.Path, &r.Stat))
	}
	if err := p.Print(list); err != nil {
		return err
	}
	return firstErr
}

func listDir(v *session.Volume, p *output.Printer, dir string) error {
	entries, err := v.List(dir)
	if err != nil {
		return err
	}
	return p.Print(output.NewEntryList(entries))
}

func catFile(v *session.Volume, w io.Writer, path string) error {
	_, err := v.ReadTo(path, w)
	return err
}

func makeDir(v *session.Volume, path string, parents bool) error {
	if parents {
		return v.MakeDirAll(path)
	}
	return v.MakeDir(path)
}

func removePath(v *session.Volume, path string, recursive bool) error {
	if recursive {
		return v.RemoveAll(path)
	}
	return v.Remove(path)
}

func diskUsage(v *session.Volume, p *output.Printer, path string) error {
	free, err := v.FreeSpace(path)
	if err != nil {
		return err
	}
	used, err := v.DirSize(path)
	if err != nil {
		return err
	}
	n, err := v.EntryNum(path)
	if err != nil {
		return err
	}
	return p.Print(output.Usage{Path: path, FreeBytes: free, UsedBytes: used, Entries: n})
}

func printCwd(v *session.Volume, w io.Writer) error {
	cwd, err := v.Cwd()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, cwd)
	return err
}
