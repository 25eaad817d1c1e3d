package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/handbuilder/internal/app"
	"github.com/ayusman/handbuilder/internal/auth"
	"github.com/ayusman/handbuilder/internal/catalog"
	"github.com/ayusman/handbuilder/internal/config"
	"github.com/ayusman/handbuilder/internal/server"
	"github.com/ayusman/handbuilder/internal/store"
	"github.com/ayusman/handbuilder/internal/tray"
)

func main() {
	fmt.Println("Handbuilder - Hand Gesture 3D Editor")

	cfgPath := flag.String("config", config.DefaultPath(), "path to the TOML config file")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	noTray := flag.Bool("no-tray", false, "run without the system tray menu")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *writeConfig {
		if err := config.Save(*cfgPath, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Wrote %s\n", *cfgPath)
		return
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Server.Database), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	st, err := store.New(cfg.Server.Database)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	authCfg := auth.DefaultConfig()
	authCfg.SessionTTL = cfg.SessionTTL()
	manager := auth.NewManager(st, authCfg)
	if err := manager.Seed(); err != nil {
		log.Fatalf("Failed to seed accounts: %v", err)
	}
	if n, err := manager.Prune(); err != nil {
		log.Printf("Failed to prune sessions: %v", err)
	} else if n > 0 {
		log.Printf("Pruned %d expired sessions", n)
	}

	hub := server.NewSceneHub()
	application := app.New(app.Config{
		Camera:       cfg.CameraConfig(),
		Detector:     cfg.DetectorConfig(),
		Enhance:      cfg.EnhanceConfig(),
		Scene:        cfg.SceneConfig(),
		TickInterval: cfg.TickInterval(),
		Store:        st,
	}, hub)
	defer application.Close()

	// The editor stays usable from the browser without a camera.
	if err := application.Start(); err != nil {
		log.Printf("Starting without hand tracking: %v", err)
	}

	webDir := findWebDir(cfg.Server.StaticDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Auth:       manager,
		Controller: application,
		Hub:        hub,
		Preview:    application.Preview(),
		Hands:      application.Hands(),
	})
	defer srv.Close()

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on http://%s\n", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Tray && !*noTray {
		go func() {
			select {
			case <-ctx.Done():
			case err := <-errCh:
				log.Printf("Server failed: %v", err)
			}
			stop()
			tray.Quit()
		}()
		// The tray owns the main thread until Quit.
		runTray(ctx, application, "http://"+cfg.Server.Addr, stop)
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			log.Printf("Server failed: %v", err)
		}
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// runTray wires the tray menu to the application and blocks until it quits.
func runTray(ctx context.Context, a *app.App, url string, quit func()) {
	t := tray.New()
	t.OnMode(func(m catalog.Mode) {
		if _, err := a.SetMode(m); err != nil {
			log.Printf("Tray mode switch failed: %v", err)
		}
	})
	t.OnToggleGrid(func() {
		if _, err := a.ToggleGrid(); err != nil {
			log.Printf("Tray grid toggle failed: %v", err)
		}
	})
	t.OnResetCamera(func() {
		if err := a.ResetCamera(); err != nil {
			log.Printf("Tray camera reset failed: %v", err)
		}
	})
	t.OnClear(func() {
		if _, err := a.Clear(); err != nil {
			log.Printf("Tray clear failed: %v", err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(quit)

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.SetStatus(a.Status())
			}
		}
	}()

	t.Run()
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
// It checks the configured path, "web", "../web", "../../web", and
// ~/.handbuilder/web. Returns the first existing directory or empty string
// if none found.
func findWebDir(configured string) string {
	paths := []string{configured, "web", "../web", "../../web", filepath.Join(config.Dir(), "web")}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
