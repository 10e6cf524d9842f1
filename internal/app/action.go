package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/timescope/timescope/internal/aggregate"
	"github.com/timescope/timescope/internal/config"
	"github.com/timescope/timescope/internal/daemon"
	"github.com/timescope/timescope/internal/export"
	"github.com/timescope/timescope/internal/report"
	"github.com/timescope/timescope/internal/storage"
	"github.com/timescope/timescope/pkg/detector"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// openRepo connects to the database and runs migrations. The caller owns the
// returned close function.
func openRepo(cfg *config.Config) (*storage.Repository, func(), error) {
	db, err := storage.Connect(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return storage.NewRepository(db), func() { db.Close() }, nil
}

// reportDate reads the --date flag, defaulting to now.
func reportDate(ctx *cli.Context) (time.Time, error) {
	raw := ctx.String("date")
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return date, nil
}

func stopAction(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if !running {
		fmt.Println("Daemon is not running")
		return nil
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		return errors.Wrap(err, "failed to stop daemon")
	}
	fmt.Println("Daemon stopped")
	return nil
}

func statusAction(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Sampling interval: %v\n", cfg.Sampler.Interval)
		fmt.Printf("Idle threshold: %v\n", cfg.Sampler.IdleThreshold)
	}

	det, err := detector.New()
	if err != nil {
		fmt.Printf("\nCould not detect current window: %v\n", err)
		return nil
	}
	defer det.Close()

	if info, err := det.FocusedWindow(); err == nil && info != nil {
		fmt.Printf("\nCurrent window:\n")
		fmt.Printf("  App: %s\n", info.AppName)
		fmt.Printf("  Title: %s\n", info.WindowTitle)
		fmt.Printf("  Display: %s\n", info.DisplayServer)
	}

	if idle, err := det.Idle(); err == nil && idle != nil {
		fmt.Printf("\nInput state:\n")
		fmt.Printf("  Mouse idle: %v\n", idle.MouseIdle.Round(time.Second))
		fmt.Printf("  Keyboard idle: %v\n", idle.KeyIdle.Round(time.Second))
		fmt.Printf("  Screen locked: %v\n", idle.IsLocked)
	}

	return nil
}

func reportAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date, err := reportDate(ctx)
	if err != nil {
		return err
	}

	repo, closeDB, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	rep := report.New(cfg, repo)

	if ctx.Bool("week") {
		week, err := rep.Week(date)
		if err != nil {
			return errors.Wrap(err, "failed to build week report")
		}
		return printReport(ctx, week, rep.FormatWeekText(week))
	}

	day, err := rep.Day(date)
	if err != nil {
		return errors.Wrap(err, "failed to build day report")
	}
	return printReport(ctx, day, rep.FormatDayText(day))
}

func printReport(ctx *cli.Context, v any, text string) error {
	if ctx.Bool("json") {
		s, err := report.FormatJSON(v)
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}
	fmt.Println(text)
	return nil
}

func exportAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date, err := reportDate(ctx)
	if err != nil {
		return err
	}

	repo, closeDB, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	start, end := aggregate.DayWindow(date, cfg.Day.EndOfDayOffset)
	samples, err := repo.QueryRange(start, end)
	if err != nil {
		return errors.Wrap(err, "failed to query samples")
	}

	path := ctx.Path("output")
	if path == "" {
		return export.WriteCSV(os.Stdout, samples)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer f.Close()

	if err := export.WriteCSV(f, samples); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d samples to %s\n", len(samples), path)
	return nil
}

func importAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: timescope import <file>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(ctx.Args().First())
	if err != nil {
		return errors.Wrap(err, "failed to open import file")
	}
	defer f.Close()

	samples, skipped, err := export.ReadCSV(f)
	if err != nil {
		return errors.Wrap(err, "failed to read CSV")
	}

	repo, closeDB, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	for i := range samples {
		if err := repo.Append(&samples[i]); err != nil {
			return errors.Wrapf(err, "failed to store sample %d", i)
		}
	}

	fmt.Printf("Imported %d samples", len(samples))
	if skipped > 0 {
		fmt.Printf(" (%d malformed rows skipped)", skipped)
	}
	fmt.Println()
	return nil
}

func storageAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, closeDB, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	info, err := repo.Info()
	if err != nil {
		return errors.Wrap(err, "failed to inspect storage")
	}

	if ctx.Bool("json") {
		s, err := report.FormatJSON(info)
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}

	fmt.Printf("Samples:  %d\n", info.SampleCount)
	if info.Earliest != nil {
		fmt.Printf("Earliest: %s\n", info.Earliest.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Earliest: -")
	}
	fmt.Printf("Size:     %.1f KiB\n", float64(info.SizeOnDisk)/1024)
	return nil
}

func clearAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !ctx.Bool("force") {
		fmt.Print("This will delete all recorded samples. Are you sure? (yes/no): ")
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "yes" && response != "y" {
			fmt.Println("Operation cancelled")
			return nil
		}
	}

	repo, closeDB, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear database")
	}
	fmt.Println("All samples deleted")
	return nil
}
