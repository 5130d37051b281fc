// Command querypilot runs the conversational query-understanding server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	querypilot "github.com/querypilot/querypilot"
	"github.com/querypilot/querypilot/analytics"
	"github.com/querypilot/querypilot/classifier"
	"github.com/querypilot/querypilot/config"
	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/extractor"
	"github.com/querypilot/querypilot/learning"
	"github.com/querypilot/querypilot/logging"
	"github.com/querypilot/querypilot/model/anthropic"
	"github.com/querypilot/querypilot/model/openai"
	"github.com/querypilot/querypilot/searchexec"
	"github.com/querypilot/querypilot/session"
	"github.com/querypilot/querypilot/transport"
	"github.com/querypilot/querypilot/understand"
	"github.com/querypilot/querypilot/voice"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false).WithComponent("server")

	keywords, err := config.LoadKeywords(cfg.KeywordsFile)
	if err != nil {
		log.Fatalf("load keyword tables: %v", err)
	}
	understand.AddFilterKeywords(keywords.FilterKeywords)

	var sessions core.SessionStore = session.NewInMemoryStore(func(o *session.InMemoryOptions) {
		o.TTL = cfg.SessionTTL
	})
	var events core.AnalyticsStore = analytics.NewInMemoryStore()
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		client := redis.NewClient(redisOpts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("connect to redis: %v", err)
		}
		cancel()
		sessions = session.NewRedisStore(client, func(o *session.RedisOptions) {
			o.TTL = cfg.SessionTTL
		})
		events = analytics.NewRedisStore(client)
		logger.Info("redis stores wired", "url", cfg.RedisURL)
	} else {
		logger.Warn("no redis url configured, using in-memory stores")
	}

	var llm core.LanguageModel
	switch cfg.Provider {
	case "anthropic":
		llm = anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		})
	case "openai":
		llm = openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		})
	default:
		log.Fatalf("unknown llm provider %q", cfg.Provider)
	}

	var retrainer core.Retrainer
	if cfg.RetrainURL != "" {
		retrainer = learning.NewHTTPRetrainer(cfg.RetrainURL)
	}

	var searcher *searchexec.Client
	if cfg.SearchURL != "" {
		searcher = searchexec.New(cfg.SearchURL, func(so *searchexec.Options) { so.Logger = logger })
	}

	pilot := querypilot.New(func(o *querypilot.Options) {
		if cfg.ClassifierURL != "" {
			o.Classifier = classifier.New(cfg.ClassifierURL, func(co *classifier.Options) { co.Logger = logger })
		}
		if cfg.ExtractorURL != "" {
			o.Extractor = extractor.New(cfg.ExtractorURL, func(eo *extractor.Options) { eo.Logger = logger })
		}
		o.LLM = llm
		if searcher != nil {
			o.Search = searcher
			o.Carts = searcher
		}
		if cfg.VoiceURL != "" {
			o.Voice = voice.New(cfg.VoiceURL, func(vo *voice.Options) { vo.Logger = logger })
		}
		o.Retrainer = retrainer
		o.ProfileCacheTTL = cfg.ProfileCacheTTL
		o.SessionStore = sessions
		o.AnalyticsStore = events
		o.Suggestions = keywords.Suggestions
		o.Logger = logger
	})

	scheduler, err := learning.NewScheduler(pilot.Learning())
	if err != nil {
		log.Fatalf("wire retrain schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := transport.NewServer(pilot)
	go func() {
		if err := server.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start server: %v", err)
		}
	}()
	logger.Info("querypilot started", "addr", cfg.HTTPAddr, "provider", cfg.Provider)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
