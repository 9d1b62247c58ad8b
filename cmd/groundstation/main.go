package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"periph.io/x/periph/host"

	"github.com/banshee-data/groundstation/internal/api"
	"github.com/banshee-data/groundstation/internal/audio"
	"github.com/banshee-data/groundstation/internal/buttons"
	"github.com/banshee-data/groundstation/internal/config"
	"github.com/banshee-data/groundstation/internal/db"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/station"
	"github.com/banshee-data/groundstation/internal/timeutil"
	"github.com/banshee-data/groundstation/internal/version"
)

var (
	configPath    = flag.String("config", "", "Path to the YAML config file (default "+config.DefaultConfigPath+" if present)")
	devMode       = flag.Bool("dev", false, "Run in dev mode: mock serial port, log display, no GPIO")
	listen        = flag.String("listen", "", "HTTP listen address, overrides http.listen")
	port          = flag.String("port", "", "Serial port, overrides serial.port (ignored in dev mode)")
	disableSerial = flag.Bool("disable-serial", false, "Discard frames instead of opening a serial port")
	dbPath        = flag.String("db", "", "History database path, overrides db.path")
	skipStartup   = flag.Bool("skip-startup", false, "Skip the boot and welcome screens")
	logFile       = flag.String("log-file", "", "Append logs to this file instead of stderr (default "+termboxLogFile+" with the termbox display)")
	verbose       = flag.Bool("verbose", false, "Log every cycle")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applyFlags(cfg, flagOverrides{
		listen:        *listen,
		port:          *port,
		dbPath:        *dbPath,
		disableSerial: *disableSerial,
		skipStartup:   *skipStartup,
		dev:           *devMode,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if path := logDestination(*logFile, cfg); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if needsGPIO(cfg) {
		if _, err := host.Init(); err != nil {
			log.Fatalf("failed to initialise GPIO host: %v", err)
		}
	}

	display, closeDisplay, err := openDisplay(cfg)
	if err != nil {
		log.Fatalf("failed to open display: %v", err)
	}
	defer closeDisplay()

	link, err := openLink(cfg, *devMode)
	if err != nil {
		log.Fatalf("failed to open serial link: %v", err)
	}
	defer link.Close()

	clock := timeutil.RealClock{}
	buzzer, err := openLine(cfg.GetBuzzerBackend(), cfg.GetBuzzerPin(), cfg.GetSampleRate())
	if err != nil {
		log.Fatalf("failed to open buzzer: %v", err)
	}
	headphones, err := openLine(cfg.GetHeadphonesBackend(), cfg.GetHeadphonesPin(), cfg.GetSampleRate())
	if err != nil {
		log.Fatalf("failed to open headphones: %v", err)
	}
	driver := audio.NewDriver(buzzer, headphones, clock)
	defer driver.Close()

	st, err := station.New(display, link, driver, clock, stationOptions(cfg))
	if err != nil {
		log.Fatalf("failed to create station: %v", err)
	}

	var history *db.DB
	if path := cfg.GetDBPath(); path != "" {
		history, err = db.NewDB(path)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer history.Close()
		if err := history.StartSession(context.Background(), st.Session(), clock.Now(), version.Version, cfg.GetSerialPort()); err != nil {
			log.Printf("failed to record session: %v", err)
		}
		st.SetRecorder(history)
	}

	source, err := openButtons(cfg)
	if err != nil {
		log.Fatalf("failed to open buttons: %v", err)
	}

	log.Printf("groundstation %s session %s: display=%s buzzer=%s headphones=%s buttons=%s serial=%s",
		version.Version, st.Session(), cfg.GetDisplayBackend(), cfg.GetBuzzerBackend(),
		cfg.GetHeadphonesBackend(), cfg.GetButtonsBackend(), describeSerial(cfg, *devMode))

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		// Without the loop there is nothing left to serve.
		defer stop()
		if err := st.Run(ctx); err != nil {
			log.Printf("station loop stopped: %v", err)
		}
		log.Print("station routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := source.Watch(ctx, buttons.Handlers{
			Pause:  func() { st.TogglePause() },
			Output: func() { st.ToggleOutput() },
			Quit:   stop,
		})
		if err != nil {
			log.Printf("button watcher stopped: %v", err)
		}
		log.Print("button routine terminated")
	}()

	if addr := cfg.GetListen(); addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveHTTP(ctx, addr, st, history, link)
		}()
	}

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func serveHTTP(ctx context.Context, addr string, st *station.Station, history *db.DB, link adminLink) {
	var store api.History
	if history != nil {
		store = history
	}
	mux := api.NewServer(st, store, link).ServeMux()
	link.AttachAdminRoutes(mux)
	if history != nil {
		if err := history.AttachAdminRoutes(mux); err != nil {
			log.Printf("debug routes unavailable: %v", err)
		}
	}

	server := &http.Server{
		Addr:    addr,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server routine stopped")
}
