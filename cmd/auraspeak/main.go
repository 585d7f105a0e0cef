package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/salah-saleh/AuraSpeak/internal/audio"
	"github.com/salah-saleh/AuraSpeak/internal/bench"
	"github.com/salah-saleh/AuraSpeak/internal/clipboard"
	"github.com/salah-saleh/AuraSpeak/internal/config"
	"github.com/salah-saleh/AuraSpeak/internal/hotkey"
	"github.com/salah-saleh/AuraSpeak/internal/ipc"
	"github.com/salah-saleh/AuraSpeak/internal/nlu"
	"github.com/salah-saleh/AuraSpeak/internal/notify"
	"github.com/salah-saleh/AuraSpeak/internal/proxy"
	"github.com/salah-saleh/AuraSpeak/internal/search"
	"github.com/salah-saleh/AuraSpeak/internal/session"
	"github.com/salah-saleh/AuraSpeak/internal/stt"
	"github.com/salah-saleh/AuraSpeak/internal/tts"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS proxy address (host:port)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	triggerHold := cli.DurationP("trigger-hold", "t", 5*time.Second, "Recording length for the ipc trigger command")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		log.Error("Bad configuration", "err", err)
		os.Exit(1)
	}

	combo, err := hotkey.ParseCombination(cfg.RecordKeys)
	if err != nil {
		log.Error("Bad trigger combination", "keys", cfg.RecordKeys, "err", err)
		os.Exit(1)
	}

	log.Debug("Loaded config")

	httpClient := &http.Client{Timeout: cfg.CallTimeout}
	if *proxyAddr != "" {
		httpClient, err = proxy.NewSocksClient(*proxyAddr, cfg.CallTimeout)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded proxy")
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	)

	if err := audio.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer audio.Terminate()

	capture := audio.NewCapture(cfg.SampleRate)
	player := audio.NewPlayer()

	log.Debug("Loaded audio")

	primary := stt.NewWhisper(client, "", cfg.CallTimeout)
	var comparisons []stt.Transcriber
	if cfg.LocalModel != "" {
		local, err := stt.NewLocal(cfg.LocalModel, "auto")
		if err != nil {
			log.Warn("Local whisper disabled", "model", cfg.LocalModel, "err", err)
		} else {
			defer local.Close()
			comparisons = append(comparisons, local)
			log.Debug("Loaded local whisper", "model", cfg.LocalModel)
		}
	}

	registry := bench.New()

	pipe := &session.Pipeline{
		Primary:     primary,
		Comparisons: comparisons,
		Classifier:  nlu.NewClassifier(client, cfg.ChatModel),
		Searcher:    search.New(httpClient, client, cfg.ChatModel, cfg.SearchDir),
		Synth:       tts.New(client, cfg.TTSModel, cfg.TTSVoice, cfg.CallTimeout),
		Clipboard:   clipboard.New(),
		Player:      player,
		Bench:       registry,
		Notify:      notify.Alert,
	}

	sess := session.New(session.Config{
		Recorder:       capture,
		Playback:       player,
		Run:            pipe.Run,
		PreemptTimeout: cfg.PreemptTimeout,
		Notify:         notify.Alert,
	})

	trig := hotkey.New(combo,
		func() {
			go notify.Cue()
			sess.Engage()
		},
		sess.Release,
	)
	go trig.Run()
	defer trig.Close()

	if err := ipc.StartServer(func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case ipc.CmdEngage:
			sess.Engage()
		case ipc.CmdRelease:
			sess.Release()
		case ipc.CmdTrigger:
			sess.Engage()
			time.AfterFunc(*triggerHold, sess.Release)
		case ipc.CmdStop:
			sess.Cancel()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "keys", cfg.RecordKeys)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down")
	sess.Shutdown()

	path, err := registry.WriteFile(cfg.BenchDir)
	if err != nil {
		log.Warn("Failed to save benchmarks", "err", err)
		return
	}
	log.Info("Benchmarks saved", "path", path)
}
