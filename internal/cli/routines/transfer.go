package routines

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/export"
)

type RoutineExportCmd struct {
	User   string `help:"Owner (defaults to the only user)."`
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

func (c *RoutineExportCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, c.User)
	if err != nil {
		return err
	}
	svc := ctx.Routines()
	rs, err := svc.List(bg, caller)
	if err != nil {
		return err
	}
	doc := export.Build(rs, completion.NewLog(svc.Location(bg, caller)), ctx.Clock())

	if c.Output == "" {
		out := ctx.Out
		if out == nil {
			out = os.Stdout
		}
		return export.Write(out, doc)
	}

	f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := export.Write(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	ctx.Printf("Exported %d routine(s) to %s\n", len(doc.Routines), c.Output)
	return nil
}

type RoutineImportCmd struct {
	User string `help:"Owner (defaults to the only user)."`
	File string `arg:"" help:"Export file to read, or - for stdin."`
}

func (c *RoutineImportCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, c.User)
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	inputs, err := export.Read(r)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup(bg)
	svc := ctx.Routines()
	for i, in := range inputs {
		created, err := svc.Create(bg, caller, in)
		if err != nil {
			// earlier routines stay imported
			return fmt.Errorf("routine %d of %d (%q): %w", i+1, len(inputs), in.Title, err)
		}
		ctx.Printf("Imported routine: %s (%s)\n", created.Title, created.ID)
	}
	ctx.Printf("Imported %d routine(s).\n", len(inputs))
	return nil
}
