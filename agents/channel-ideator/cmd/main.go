package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	channelideator "channel-ideator/agents/channel-ideator"
	"channel-ideator/shared/config"
	"channel-ideator/shared/logging"
	"channel-ideator/shared/monitoring"
	"channel-ideator/shared/scheduler"
)

func main() {
	var (
		serve   = flag.Bool("serve", false, "run the HTTP API")
		once    = flag.Bool("once", false, "analyze the configured channels once and exit")
		channel = flag.String("channel", "", "analyze a single channel URL and print the ideas")
		months  = flag.Int("months", 0, "months of uploads to analyze with -channel (default: months_back)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := channelideator.NewChannelAgent(cfg)
	defer func() {
		if err := agent.Close(); err != nil {
			log.Warnf("Failed to close agent: %v", err)
		}
	}()

	switch {
	case *channel != "":
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		result, err := agent.Analyze(ctx, *channel, *months)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		fmt.Printf("Analyzed %d videos (%d with transcripts)\n", result.VideosAnalyzed, result.VideosWithSubtitles)
		fmt.Printf("Results: %s, %s\n\n", result.CSVFile, result.JSONFile)
		fmt.Println(result.GeneratedIdeas)

	case *serve:
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		server := channelideator.NewServer(cfg.API, agent, monitoring.NewMonitor())
		if err := server.ListenAndServe(ctx); err != nil {
			log.Fatalf("API server failed: %v", err)
		}

	case *once:
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}
		s := scheduler.New(cfg, agent, nil)
		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}

	default:
		fmt.Println("Starting scheduler...")
		s := scheduler.New(cfg, agent, nil)
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Scheduler failed: %v", err)
		}
	}
}
