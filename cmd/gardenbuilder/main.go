package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/daemon"
	"github.com/A1i98/obsidian-digital-garden/internal/eventstore"
	"github.com/A1i98/obsidian-digital-garden/internal/frontmatter"
	"github.com/A1i98/obsidian-digital-garden/internal/garden"
	"github.com/A1i98/obsidian-digital-garden/internal/notify"
	"github.com/A1i98/obsidian-digital-garden/internal/publisher"
	"github.com/A1i98/obsidian-digital-garden/internal/vault"
	"github.com/A1i98/obsidian-digital-garden/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"gardenbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build struct {
		Output string `short:"o" help:"Output directory for the compiled garden (overrides config)"`
	} `cmd:"" help:"Compile publishable notes into a local output directory"`

	Publish struct{} `cmd:"" help:"Compile publishable notes and push them to the garden repository"`

	Status struct {
		Runs int `help:"Also show the N most recent daemon publish runs"`
	} `cmd:"" help:"Show what a publish would change without writing anything"`

	Validate struct{} `cmd:"" help:"Report which notes carry the publish flag and which do not"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct{} `cmd:"" help:"Watch the vault and publish continuously"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{"version": version.String()})

	level := slog.LevelInfo
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	switch ctx.Command() {
	case "build":
		if err := runBuild(CLI.Build.Output); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "publish":
		if err := runPublish(); err != nil {
			slog.Error("Publish failed", "error", err)
			os.Exit(1)
		}
	case "status":
		if err := runStatus(CLI.Status.Runs); err != nil {
			slog.Error("Status failed", "error", err)
			os.Exit(1)
		}
	case "validate":
		if err := runValidate(); err != nil {
			slog.Error("Validate failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", CLI.Config)
	case "daemon":
		if err := runDaemon(); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	}
}

func runBuild(outputOverride string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if outputOverride != "" {
		cfg.Output.Directory = outputOverride
	}

	builder := garden.NewBuilder(cfg, nil)
	build, err := builder.Run(context.Background())
	if err != nil {
		return err
	}
	if err := builder.WriteLocal(build, cfg.Output.Directory); err != nil {
		return err
	}

	fmt.Printf("Compiled %d notes (%d skipped, %d failed) and %d attachments to %s in %s\n",
		len(build.Pages), build.Skipped, build.Failed, len(build.Images),
		cfg.Output.Directory, build.Duration.Round(time.Millisecond))
	return nil
}

func runPublish() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	ctx := context.Background()
	build, err := garden.NewBuilder(cfg, nil).Run(ctx)
	if err != nil {
		return err
	}

	result, err := publisher.NewPublisher(&cfg.Garden, cfg.Vault.Path, nil).Publish(ctx, build)
	if err != nil {
		return err
	}

	if !result.Pushed {
		fmt.Printf("Garden already up to date (%d files unchanged)\n", result.Changes.Unchanged)
		return nil
	}
	fmt.Printf("Published commit %s: %d created, %d updated, %d deleted in %s\n",
		shortSHA(result.CommitSHA), len(result.Changes.Create), len(result.Changes.Update),
		len(result.Changes.Delete), result.Duration.Round(time.Millisecond))
	return nil
}

func runStatus(runs int) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	ctx := context.Background()
	build, err := garden.NewBuilder(cfg, nil).Run(ctx)
	if err != nil {
		return err
	}

	changes, err := publisher.NewPublisher(&cfg.Garden, cfg.Vault.Path, nil).Status(ctx, build)
	if err != nil {
		return err
	}

	if changes.Empty() {
		fmt.Printf("Garden is up to date (%d files)\n", changes.Unchanged)
	} else {
		for _, p := range changes.Create {
			fmt.Printf("create %s\n", p)
		}
		for _, p := range changes.Update {
			fmt.Printf("update %s\n", p)
		}
		for _, p := range changes.Delete {
			fmt.Printf("delete %s\n", p)
		}
		fmt.Printf("%d to create, %d to update, %d to delete, %d unchanged\n",
			len(changes.Create), len(changes.Update), len(changes.Delete), changes.Unchanged)
	}

	if runs > 0 {
		return printRecentRuns(cfg.Daemon.EventStore.Path, runs)
	}
	return nil
}

func printRecentRuns(journalPath string, limit int) error {
	if _, err := os.Stat(journalPath); err != nil {
		fmt.Printf("No publish journal at %s\n", journalPath)
		return nil
	}

	journal, err := eventstore.Open(journalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	recent, err := journal.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	fmt.Println("\nRecent publish runs:")
	for _, run := range recent {
		outcome := "failed"
		switch {
		case run.Pushed:
			outcome = fmt.Sprintf("pushed %s (+%d ~%d -%d)",
				shortSHA(run.CommitSHA), run.Created, run.Updated, run.Deleted)
		case run.Success:
			outcome = "up to date"
		}
		fmt.Printf("  %s  %-9s %s\n", run.StartedAt.Format(time.RFC3339), run.Trigger, outcome)
		if run.Error != "" {
			fmt.Printf("    error: %s\n", run.Error)
		}
	}
	return nil
}

func runValidate() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	notes, err := vault.NewScanner(cfg.Vault.Path, cfg.Vault.IgnorePrefixes).Scan()
	if err != nil {
		return err
	}

	validator := garden.NewValidator(&notify.SlogNotifier{})
	publishable, unpublished, broken := 0, 0, 0
	for _, note := range notes {
		if note.IsAttachment {
			continue
		}
		content, err := os.ReadFile(note.Path)
		if err != nil {
			return err
		}
		fm, _, _, _, err := frontmatter.Split(content)
		if err != nil {
			fmt.Printf("broken  %s (%v)\n", note.RelativePath, err)
			broken++
			continue
		}
		source, err := frontmatter.ParseYAML(fm)
		if err != nil {
			fmt.Printf("broken  %s (%v)\n", note.RelativePath, err)
			broken++
			continue
		}
		if validator.IsValid(source) {
			fmt.Printf("publish %s\n", note.RelativePath)
			publishable++
		} else {
			fmt.Printf("skip    %s\n", note.RelativePath)
			unpublished++
		}
	}

	fmt.Printf("%d publishable, %d without the publish flag, %d broken\n",
		publishable, unpublished, broken)
	if broken > 0 {
		return errors.New("vault contains notes with malformed frontmatter")
	}
	return nil
}

func runDaemon() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	return d.Run(ctx)
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
