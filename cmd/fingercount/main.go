package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/capture"
	"github.com/ayusman/fingercount/internal/detector"
	"github.com/ayusman/fingercount/internal/display"
	"github.com/ayusman/fingercount/internal/publish"
	"github.com/ayusman/fingercount/internal/server"
	"github.com/ayusman/fingercount/internal/store"
	"github.com/ayusman/fingercount/internal/tray"
)

const dataDirName = ".fingercount"

func main() {
	deviceID := flag.Int("device", 0, "camera device index")
	fps := flag.Int("fps", capture.DefaultFPS, "frames processed per second")
	configPath := flag.String("config", "", "detector configuration file (JSON)")
	dbPath := flag.String("db", "", "SQLite database path (default ~/"+dataDirName+"/fingercount.db)")
	listen := flag.String("listen", ":8080", "dashboard listen address, empty to disable")
	window := flag.Bool("window", true, "show the preview and mask windows")
	withTray := flag.Bool("tray", false, "run from the system tray instead of windows")
	mirror := flag.Bool("mirror", true, "flip camera frames horizontally")
	publishAddr := flag.String("publish", "", "ZeroMQ endpoint to publish results on, e.g. tcp://*:5556")
	record := flag.Bool("record", true, "record sessions and readings in the database")
	flag.Parse()

	fmt.Println("Finger Counter")

	// Initialize the store
	if *dbPath == "" {
		dataDir, err := dataDir()
		if err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		*dbPath = filepath.Join(dataDir, "fingercount.db")
	}

	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	detCfg, err := loadDetectorConfig(st, *configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	cfg := app.DefaultConfig()
	cfg.Detector = detCfg
	cfg.CameraID = *deviceID
	cfg.FPS = *fps
	cfg.Mirror = *mirror

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	defer a.Close()

	if *record {
		rec := store.NewRecorder(st, *deviceID, store.DefaultBatchSize)
		defer rec.Close()
		a.AddSink(rec)
	}

	broadcaster := server.NewBroadcaster()
	defer broadcaster.Close()
	a.AddSink(broadcaster)

	if *publishAddr != "" {
		pub, err := publish.NewPublisher(*publishAddr)
		if err != nil {
			log.Fatalf("Failed to start publisher: %v", err)
		}
		defer pub.Close()
		a.AddSink(pub)
	}

	if *listen != "" {
		webDir := findWebDir()
		if webDir != "" {
			fmt.Printf("Serving static files from: %s\n", webDir)
		}

		srv := server.New(server.Config{
			StaticDir:   webDir,
			Store:       st,
			App:         a,
			Broadcaster: broadcaster,
		})

		fmt.Printf("Starting server on %s\n", *listen)
		go func() {
			if err := srv.ListenAndServe(*listen); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *withTray {
		runTray(ctx, a, dashboardURL(*listen))
		return
	}

	if *window {
		w := display.NewWindow()
		defer w.Close()
		a.AddSink(w)
	}

	// Windows must be driven from the main goroutine, so the pipeline runs here.
	err = a.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Printf("Finished after %d frames", a.LastResult().Frame)
	case errors.Is(err, detector.ErrInvalidConfig):
		log.Fatalf("Invalid configuration: %v", err)
	default:
		log.Fatalf("Detection failed: %v", err)
	}
}

// runTray starts the pipeline in the background and blocks in the tray
// event loop until quit, an interrupt or the end of the stream.
func runTray(ctx context.Context, a *app.App, dashboard string) {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnQuit(a.Stop)
	if dashboard != "" {
		t.OnDashboard(func() {
			if err := openBrowser(dashboard); err != nil {
				log.Printf("Failed to open dashboard: %v", err)
			}
		})
	}
	a.AddSink(t)

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start detection: %v", err)
	}

	done := a.Done()
	go func() {
		select {
		case <-ctx.Done():
			a.Stop()
		case <-done:
		}
		t.Quit()
	}()

	t.Run()
	a.Stop()
}

// loadDetectorConfig applies, in order, the defaults, the configuration
// saved in the settings table and the file given with -config.
func loadDetectorConfig(st *store.Store, path string) (detector.Config, error) {
	cfg, err := st.Settings().DetectorConfig()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("Ignoring saved detector configuration: %v", err)
	}

	if path == "" {
		return cfg, nil
	}
	return cfg.Overlay(path)
}

func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(homeDir, dataDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(listen string) string {
	if listen == "" {
		return ""
	}
	if strings.HasPrefix(listen, ":") {
		listen = "localhost" + listen
	}
	return "http://" + listen + "/"
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.fingercount/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, dataDirName, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
