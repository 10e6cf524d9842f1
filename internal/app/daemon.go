package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/timescope/timescope/internal/config"
	"github.com/timescope/timescope/internal/daemon"
	"github.com/timescope/timescope/internal/notify"
	"github.com/timescope/timescope/internal/sampler"
	"github.com/timescope/timescope/internal/web"
	"github.com/timescope/timescope/pkg/detector"
)

// daemonChildEnv marks a re-executed child so it runs the daemon body instead
// of forking again.
const daemonChildEnv = "TIMESCOPE_DAEMON_CHILD"

func startAction(_ *cli.Context) error {
	return launchDaemon(false)
}

func serveAction(_ *cli.Context) error {
	return launchDaemon(true)
}

func launchDaemon(withWeb bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if running {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	if os.Getenv(daemonChildEnv) != "1" {
		return daemonize(cfg, withWeb)
	}

	return runDaemon(cfg, dm, withWeb)
}

// daemonize re-executes the current binary in its own session with stdio
// detached, then reports where the child went.
func daemonize(cfg *config.Config, withWeb bool) error {
	env := append(os.Environ(), daemonChildEnv+"=1")
	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil},
		Sys:   &syscall.SysProcAttr{Setsid: true},
	}

	process, err := os.StartProcess(os.Args[0], os.Args, procAttr)
	if err != nil {
		return errors.Wrap(err, "failed to start daemon process")
	}

	fmt.Printf("Daemon started (PID: %d)\n", process.Pid)
	if withWeb {
		fmt.Printf("JSON API: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	}
	fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
	return nil
}

func runDaemon(cfg *config.Config, dm *daemon.Daemon, withWeb bool) error {
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.Daemon.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})

	repo, closeDB, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	det, err := detector.New()
	if err != nil {
		return errors.Wrap(err, "failed to initialize window detector")
	}
	defer det.Close()
	log.Printf("Window detector initialized: %s", det.DisplayServer())

	if err := dm.WritePID(); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	defer dm.RemovePID()

	clockOut := notify.NewClockOutChecker(cfg.ClockOut, notify.Desktop{})
	svc := sampler.NewService(cfg, repo, det, clockOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var webServer *web.Server
	if withWeb {
		webServer = web.NewServer(cfg, repo)
		go func() {
			if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Web server error: %v", err)
			}
		}()
		log.Printf("JSON API available at: http://%s", webServer.Address())
	}

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
		svc.Stop()
	}()

	log.Printf("Starting sampling daemon (interval %v, idle threshold %v)",
		cfg.Sampler.Interval, cfg.Sampler.IdleThreshold)

	if err := svc.Start(ctx); err != nil && err != context.Canceled {
		return errors.Wrap(err, "sampler error")
	}

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down web server: %v", err)
		}
	}

	log.Println("Daemon stopped")
	return nil
}
