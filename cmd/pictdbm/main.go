// Command pictdbm is the command-line shell over package pictdb, mirroring
// original_source/pictDBM/pictDBM.c's command table: create, list, insert,
// read, delete, gc. Its exit code equals the failing operation's ErrKind
// value, matching the original's "exit code is the error number" contract.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/djherbis/times.v1"

	"github.com/droduit/pictDBM"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	app := &cli.App{
		Name:  "pictdbm",
		Usage: "manage a pictDB image database",
		Commands: []*cli.Command{
			createCmd(log),
			listCmd(log),
			insertCmd(log),
			readCmd(log),
			deleteCmd(log),
			gcCmd(log),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode extracts the numeric ErrKind from err, or ErrIO's code if err did
// not originate from package pictdb (e.g. an argument-parsing failure).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return int(pictdb.KindOf(err))
}

func createCmd(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "create a new pictDB database",
		ArgsUsage: "<dbfilename>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max_files", Value: 10},
			&cli.IntFlag{Name: "thumb_x", Value: 64},
			&cli.IntFlag{Name: "thumb_y", Value: 64},
			&cli.IntFlag{Name: "small_x", Value: 256},
			&cli.IntFlag{Name: "small_y", Value: 256},
		},
		Action: func(ctx *cli.Context) error {
			path := ctx.Args().First()
			if path == "" {
				return pictdb.NewArgError("create", "missing <dbfilename>")
			}
			cfg := pictdb.Config{
				MaxFiles: ctx.Int("max_files"),
				ThumbX:   uint16(ctx.Int("thumb_x")),
				ThumbY:   uint16(ctx.Int("thumb_y")),
				SmallX:   uint16(ctx.Int("small_x")),
				SmallY:   uint16(ctx.Int("small_y")),
			}
			c, err := pictdb.Create(path, cfg, pictdb.WithLogger(log))
			if err != nil {
				return err
			}
			defer c.Close()
			fmt.Printf("%s created\n", path)
			return nil
		},
	}
}

func listCmd(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "list a database's contents",
		ArgsUsage: "<dbfilename>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "v", Usage: "also show file modification time"},
		},
		Action: func(ctx *cli.Context) error {
			path := ctx.Args().First()
			if path == "" {
				return pictdb.NewArgError("list", "missing <dbfilename>")
			}
			c, err := pictdb.Open(path, pictdb.WithLogger(log))
			if err != nil {
				return err
			}
			defer c.Close()
			fmt.Print(c.ListHuman())
			if ctx.Bool("v") {
				if t, err := times.Stat(path); err == nil {
					fmt.Printf("last modified: %s\n", t.ModTime())
				}
			}
			return nil
		},
	}
}

func insertCmd(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "insert",
		Usage:     "insert a JPEG into a database",
		ArgsUsage: "<dbfilename> <pictID> <filename>",
		Action: func(ctx *cli.Context) error {
			args := ctx.Args()
			if args.Len() < 3 {
				return pictdb.NewArgError("insert", "expected <dbfilename> <pictID> <filename>")
			}
			path, id, file := args.Get(0), args.Get(1), args.Get(2)
			data, err := os.ReadFile(file)
			if err != nil {
				return pictdb.NewArgError("insert", err.Error())
			}
			c, err := pictdb.Open(path, pictdb.WithLogger(log))
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Insert(data, id); err != nil {
				return err
			}
			fmt.Printf("%s inserted\n", id)
			return nil
		},
	}
}

func readCmd(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "extract a picture to a file",
		ArgsUsage: "<dbfilename> <pictID> [resolution]",
		Action: func(ctx *cli.Context) error {
			args := ctx.Args()
			if args.Len() < 2 {
				return pictdb.NewArgError("read", "expected <dbfilename> <pictID> [resolution]")
			}
			path, id := args.Get(0), args.Get(1)
			res, ok := pictdb.ResolutionFromString(args.Get(2))
			if !ok {
				return pictdb.NewArgError("read", fmt.Sprintf("unknown resolution %q", args.Get(2)))
			}
			c, err := pictdb.Open(path, pictdb.WithLogger(log))
			if err != nil {
				return err
			}
			defer c.Close()
			data, err := c.Read(id, res)
			if err != nil {
				return err
			}
			out := fmt.Sprintf("%s%s", id, extensionFor(res))
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return pictdb.NewArgError("read", err.Error())
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
}

func deleteCmd(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a picture from a database",
		ArgsUsage: "<dbfilename> <pictID>",
		Action: func(ctx *cli.Context) error {
			args := ctx.Args()
			if args.Len() < 2 {
				return pictdb.NewArgError("delete", "expected <dbfilename> <pictID>")
			}
			path, id := args.Get(0), args.Get(1)
			c, err := pictdb.Open(path, pictdb.WithLogger(log))
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Delete(id); err != nil {
				return err
			}
			fmt.Printf("%s deleted\n", id)
			return nil
		},
	}
}

func gcCmd(log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "gc",
		Usage:     "compact a database, reclaiming space left by deletions",
		// A second <tmp_file> argument is accepted for compatibility with the
		// original command line but unused: Compact swaps the rebuilt file
		// into place via github.com/google/renameio, which owns its own
		// temporary path in the same directory.
		ArgsUsage: "<dbfilename> [tmp_file]",
		Action: func(ctx *cli.Context) error {
			path := ctx.Args().First()
			if path == "" {
				return pictdb.NewArgError("gc", "missing <dbfilename>")
			}
			c, err := pictdb.Open(path, pictdb.WithLogger(log))
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Compact(); err != nil {
				return err
			}
			fmt.Printf("%s compacted\n", filepath.Clean(path))
			return nil
		},
	}
}

func extensionFor(res pictdb.Resolution) string {
	return "_" + res.String() + ".jpg"
}
