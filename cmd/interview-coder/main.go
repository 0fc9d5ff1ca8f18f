package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	interviewcoder "github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var configPath, dataDir, mode string
	var images, extras stringList

	flag.StringVar(&configPath, "config", "", "config file path (default ~/.config/interview-coder/config.json)")
	flag.StringVar(&dataDir, "data", "", "screenshot store directory (default ~/.config/interview-coder)")
	flag.StringVar(&mode, "mode", "solve", "pipeline to run: solve or debug")
	flag.Var(&images, "image", "problem screenshot to stage (repeatable)")
	flag.Var(&extras, "extra", "error screenshot to stage for debugging (repeatable)")
	flag.Parse()

	if len(images) == 0 {
		log.Fatalf("usage: %s -image problem.png [-image more.png] [-mode solve|debug] [-extra error.png]", filepath.Base(os.Args[0]))
	}
	if mode != "solve" && mode != "debug" {
		log.Fatalf("unknown mode: %s (use 'solve' or 'debug')", mode)
	}
	if mode == "debug" && len(extras) == 0 {
		log.Fatalf("debug mode needs at least one -extra screenshot")
	}

	// Optional .env overlay for OPENAI_API_KEY / GEMINI_API_KEY
	_ = godotenv.Load()

	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	engine, err := interviewcoder.NewWithOptions(interviewcoder.Options{
		ConfigPath: configPath,
		DataDir:    dataDir,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize engine", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Stream engine events to stdout as JSON lines; the final result follows
	// as an indented document.
	events, unsubscribe := engine.Subscribe()
	defer unsubscribe()
	go func() {
		enc := json.NewEncoder(os.Stdout)
		for ev := range events {
			_ = enc.Encode(ev)
		}
	}()

	for _, path := range images {
		if _, err := engine.AddScreenshotFile(path); err != nil {
			logger.Fatal("failed to stage screenshot", zap.String("path", path), zap.Error(err))
		}
	}

	solution, err := engine.RunInitialSolve(ctx)
	if err != nil {
		logger.Fatal("solve failed", zap.Error(err))
	}

	if mode == "solve" {
		printResult(solution)
		return
	}

	for _, path := range extras {
		if _, err := engine.AddScreenshotFile(path); err != nil {
			logger.Fatal("failed to stage screenshot", zap.String("path", path), zap.Error(err))
		}
	}

	report, err := engine.RunDebug(ctx)
	if err != nil {
		logger.Fatal("debug failed", zap.Error(err))
	}
	printResult(report)
}

func printResult(v interface{}) {
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("failed to render result: %v", err)
	}
	fmt.Println(string(js))
}
