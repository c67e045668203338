package main

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"

	"sightread/cmd"
	"sightread/internal/audio"
	"sightread/internal/config"
	"sightread/internal/log"
	"sightread/internal/pitch"
	"sightread/internal/progress"
	"sightread/internal/storage"
	"sightread/internal/trainer"
	"sightread/internal/transport"
	"sightread/internal/transport/udp"
	"sightread/internal/tui"
	"sightread/pkg/build"
)

// main runs in three phases:
//
// 1. Startup (cold path): build info, environment, configuration,
//    PortAudio, storage and the progression engine.
// 2. Practice (hot path): the capture callback feeds analysis frames
//    to the session while the TUI renders prompts and feedback.
// 3. Shutdown (cold path): stop the stream, flush the recording,
//    close storage and transports.
func main() {
	// ==================== STARTUP PHASE ====================

	// Optional .env for SIGHTREAD_* overrides; absence is fine.
	godotenv.Load()

	build.Initialize()

	// One thread for the audio callback, one for UI and I/O.
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}

	if err := audio.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}
	defer audio.Terminate()

	// One-off commands run without the capture engine.
	switch cfg.Command {
	case "list":
		if err := tui.StartDeviceListUI(); err != nil {
			log.Fatalf("device list: %v", err)
		}
		return
	case "reset":
		kv, closeKV, err := openStorage(cfg)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		defer closeKV()
		store := progress.NewStore(kv, progress.TuningFromConfig(cfg.Progress), nil)
		if err := store.Reset(); err != nil {
			log.Fatalf("reset: %v", err)
		}
		log.Infof("progress cleared")
		return
	}

	kv, closeKV, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeKV()

	store := progress.NewStore(kv, progress.TuningFromConfig(cfg.Progress), nil)
	selector := progress.NewSelector(store, nil)
	controller := progress.NewController(store)

	estimator, err := pitch.New(cfg.Pitch.Algorithm, pitchConfig(cfg))
	if err != nil {
		log.Fatalf("pitch estimator: %v", err)
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		log.Fatalf("transport: %v", err)
	}
	defer publisher.Close()

	session := trainer.New(cfg, store, selector, controller, estimator, publisher, nil)

	engine, err := audio.NewEngine(cfg, session.HandleFrame)
	if err != nil {
		log.Fatalf("audio engine: %v", err)
	}

	// ==================== PRACTICE PHASE ====================

	if err := engine.StartInputStream(); err != nil {
		log.Fatalf("input stream: %v", err)
	}

	if cfg.Recording.Enabled {
		path := recordingPath(cfg)
		if err := engine.StartRecording(path); err != nil {
			log.Fatalf("recording: %v", err)
		}
		log.Infof("recording to %s", path)
	}

	unlocked := store.UnlockedCount(cfg.Session.Clef)
	if err := tui.RunPractice(session, cfg.Session.Clef, cfg.Session.KeySignature, unlocked); err != nil {
		log.Errorf("tui: %v", err)
	}

	// ==================== SHUTDOWN PHASE ====================

	if err := engine.Close(); err != nil {
		log.Errorf("closing audio engine: %v", err)
	}
}

// openStorage opens the configured key-value backend and returns it
// with its cleanup function.
func openStorage(cfg *config.Config) (storage.KV, func(), error) {
	if cfg.Storage.Driver == "memory" {
		return storage.NewMemory(), func() {}, nil
	}
	db, err := storage.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

// buildPublisher assembles the configured event transports; with none
// enabled, events go to the debug log.
func buildPublisher(cfg *config.Config) (transport.Publisher, error) {
	var members []transport.Publisher

	if cfg.Transport.WebSocketEnabled {
		wsp, err := transport.NewWebSocketPublisher(cfg.Transport.WebSocketAddr)
		if err != nil {
			return nil, err
		}
		members = append(members, wsp)
	}
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		pub, err := udp.NewPublisher(sender)
		if err != nil {
			return nil, err
		}
		members = append(members, pub)
	}
	if len(members) == 0 {
		return transport.NewLoggingPublisher(), nil
	}
	return transport.NewFanout(members...), nil
}

// recordingPath names the session take inside the output directory.
func recordingPath(cfg *config.Config) string {
	if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
		log.Warnf("recording dir: %v", err)
	}
	name := "practice-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(cfg.Recording.OutputDir, name)
}

func pitchConfig(cfg *config.Config) pitch.Config {
	return pitch.Config{
		MinFrequency:      cfg.Pitch.MinFrequency,
		MaxFrequency:      cfg.Pitch.MaxFrequency,
		FundamentalMin:    cfg.Pitch.FundamentalMin,
		FundamentalMax:    cfg.Pitch.FundamentalMax,
		NoiseFloor:        cfg.Pitch.NoiseFloor,
		HarmonicTolerance: cfg.Pitch.HarmonicTolerance,
		PeakDecay:         cfg.Pitch.PeakDecay,
		YinThreshold:      cfg.Pitch.YinThreshold,
	}
}
