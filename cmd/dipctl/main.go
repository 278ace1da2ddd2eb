package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"DIP-EASY/internal"
	"DIP-EASY/internal/app"
	"DIP-EASY/internal/config"
	"DIP-EASY/internal/logging"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

// Global carries state shared by every subcommand.
type Global struct {
	Config *config.Config
	Log    *zap.SugaredLogger
}

type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Migrate          MigrateCmd          `cmd:"" help:"Create or update the database tables"`
	EnsureFolder     EnsureFolderCmd     `cmd:"" help:"Find or create a folder path in a tenant's remote store"`
	Validate         ValidateCmd         `cmd:"" help:"Convert a pending generation to its final PDF"`
	RegisterTemplate RegisterTemplateCmd `cmd:"" help:"Upload a .docx template as a new version"`
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(g *Global) error {
	db, err := internal.InitDB(g.Config, g.Log)
	if err != nil {
		return err
	}
	defer internal.CloseDB(db)
	return internal.Migrate(db, g.Log)
}

type EnsureFolderCmd struct {
	Tenant  string   `help:"Tenant (user id) whose store is used; empty for the shared store"`
	Segment []string `required:"" help:"Path segment, repeat for each level"`
}

func (c *EnsureFolderCmd) Run(g *Global) error {
	return withApp(g, func(ctx context.Context, a *app.App) error {
		store, err := a.Registry.For(ctx, c.Tenant)
		if err != nil {
			return err
		}
		id, err := a.Folders.EnsureFolder(ctx, store, c.Segment)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	})
}

type ValidateCmd struct {
	ID string `arg:"" help:"Generation id"`
}

func (c *ValidateCmd) Run(g *Global) error {
	return withApp(g, func(ctx context.Context, a *app.App) error {
		gen, err := a.Generations.Validate(ctx, c.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s merge=%s\n", gen.ID, gen.Status, gen.DriveFileID, gen.MergeOutcome)
		return nil
	})
}

type RegisterTemplateCmd struct {
	Name string `help:"Template name; defaults to the file name"`
	File string `required:"" type:"existingfile" help:"Path to the .docx template"`
}

func (c *RegisterTemplateCmd) Run(g *Global) error {
	content, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	return withApp(g, func(ctx context.Context, a *app.App) error {
		tpl, err := a.Templates.Upload(ctx, c.Name, filepath.Base(c.File), content)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s v%s\n", tpl.ID, tpl.Name, tpl.Version)
		return nil
	})
}

func withApp(g *Global, fn func(ctx context.Context, a *app.App) error) error {
	ctx := context.Background()
	a, err := app.Build(ctx, g.Config, g.Log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("dipctl"),
		kong.Description("Administration commands for the dossier generation service."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)

	level := cfg.Log.Level
	if cli.Verbose {
		level = "debug"
	}
	logger, err := logging.New("development", level)
	kctx.FatalIfErrorf(err)
	defer logger.Sync()

	err = kctx.Run(&Global{Config: cfg, Log: logger.Sugar()})
	kctx.FatalIfErrorf(err)
}
