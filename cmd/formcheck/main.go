package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/config"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/evaluator"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/hook"
	"github.com/ayusman/formcheck/internal/logging"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/server"
	"github.com/ayusman/formcheck/internal/store"
	"github.com/ayusman/formcheck/internal/tray"
)

func main() {
	fmt.Println("FormCheck - exercise form feedback")

	env := flag.String("env", "development", "environment [dev | development | prod | production]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Warnf("load config: %s, using defaults", err)
		cfg = config.Default()
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})
	log.Warnf("---->> running in [%s] environment", *env)

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("init store: %s", err)
	}
	log.Debugf("using database: [%s]", st.Path())

	hookManager := hook.NewManager(cfg.HooksDir)
	if err := hookManager.Discover(); err != nil {
		log.Errorf("discover hooks in [%s]: %s", cfg.HooksDir, err)
	}
	hooks := hook.NewDispatcher(hookManager, hook.NewExecutor(cfg.HookTimeout()))

	promRegistry := metrics.NewRegistry(cfg.MetricsNamespace)
	metricsManager := metrics.NewManager(cfg.MetricsNamespace, "", promRegistry)

	a := app.New(app.Config{
		Store:   st,
		Metrics: metricsManager,
		CaptureConfig: capture.Config{
			Device: cfg.CameraDevice,
			Width:  cfg.CameraWidth,
			Height: cfg.CameraHeight,
			FPS:    cfg.RenderFPS,
		},
		DetectorConfig: detector.Config{
			ModelComplexity:  cfg.PoseModelComplexity(),
			MinDetectionConf: cfg.MinDetectionConf,
			MinTrackingConf:  cfg.MinTrackingConf,
		},
		UseMockDetector:   cfg.UseMockDetector,
		DetectionInterval: cfg.DetectionInterval(),
		RenderFPS:         cfg.RenderFPS,
		MotionThresh:      cfg.MotionThreshold,
		JPEGQuality:       cfg.JPEGQuality,
		OnSessionFinished: hooks.SessionFinished,
	})

	if err := a.LoadSelection(); err != nil {
		log.Errorf("load selection: %s", err)
	}
	if a.Selection().Validate() != nil && cfg.DefaultExercise != "" {
		if err := a.SetSelection(evaluator.Selection{Exercise: exercise.ID(cfg.DefaultExercise)}); err != nil {
			log.Errorf("default exercise [%s]: %s", cfg.DefaultExercise, err)
		}
	}

	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		log.Errorf("start tracking: %s", err)
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Debugf("serving static files from: [%s]", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		App:       a,
		Metrics:   metricsManager,
		Gatherer:  promRegistry,
	})

	go func() {
		if err := srv.ListenAndServe(cfg.Addr()); err != nil {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	if cfg.TrayEnabled {
		t := setupTray(a, fmt.Sprintf("http://localhost:%d", cfg.Port))
		go func() {
			receivedSig := <-chOsInterrupt
			log.Warnf("signal [%s] received", receivedSig)
			t.Quit()
		}()
		// systray needs the main goroutine.
		t.Run()
	} else {
		receivedSig := <-chOsInterrupt
		log.Warnf("signal [%s] received", receivedSig)
	}

	shutdown(srv, a, st)
	hooks.Wait()
}

func setupTray(a *app.App, url string) *tray.Tray {
	t := tray.New()
	t.SetEnabled(a.IsEnabled())
	t.SetExercise(a.Selection().Exercise)

	// Changes made over HTTP land here too.
	a.WatchState(func(s app.State) {
		t.SetEnabled(s.Enabled)
		t.SetExercise(s.Selection.Exercise)
	})

	t.OnToggle(a.SetEnabled)
	t.OnExercise(func(id exercise.ID) {
		if err := a.SetSelection(evaluator.Selection{Exercise: id}); err != nil {
			log.Errorf("select exercise [%s]: %s", id, err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Warnf("open browser: %s", err)
		}
	})

	var (
		mu       sync.Mutex
		lastShow time.Time
	)
	a.Subscribe(func(u app.Update) {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(lastShow) < time.Second {
			return
		}
		lastShow = time.Now()
		t.SetProgress(u.Result.Progress, u.Result.IsCorrect)
	})

	return t
}

func shutdown(srv *server.Server, a *app.App, st *store.Store) {
	log.Debug("graceful shutdown initiated ...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("shutdown http server: %s", err)
	}
	if err := a.Close(); err != nil {
		log.Errorf("close app: %s", err)
	}
	if err := st.Close(); err != nil {
		log.Errorf("close store: %s", err)
	}
	log.Warnln("server shut down")
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.formcheck/web.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".formcheck", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
