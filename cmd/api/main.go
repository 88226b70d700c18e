// Mood journal API. Serves a single user session over HTTP.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/limbo/journal/internal/api"
	"github.com/limbo/journal/internal/mood"
	"github.com/limbo/journal/internal/pipeline"
	"github.com/limbo/journal/internal/repository"
	"github.com/limbo/journal/internal/service"
	"github.com/limbo/journal/internal/session"
	"github.com/limbo/journal/internal/weather"
	"github.com/limbo/journal/pkg/cleanup"
	"github.com/limbo/journal/pkg/config"
	jwtservice "github.com/limbo/journal/pkg/jwt_service"
)

func init() {
	service.InitValidator()
}

func storage(cfg *config.Config) (repository.UsersRepositoryI, repository.EntriesRepositoryI) {
	switch driver := cfg.GetStringOr("STORAGE_DRIVER", "postgres"); driver {
	case "postgres":
		dbCfg := repository.PGCfg{
			Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
			Username: cfg.GetString("POSTGRES_USER"),
			Password: cfg.GetString("POSTGRES_PASSWORD"),
			DB:       cfg.GetString("POSTGRES_DB"),
		}
		return repository.NewUsersRepo(&dbCfg), repository.NewEntriesRepo(&dbCfg)
	case "badger":
		store := repository.NewBadgerStore(cfg.GetStringOr("BADGER_PATH", "./data/journal"))
		return store.Users(), store.Entries()
	default:
		log.Fatalf("unknown STORAGE_DRIVER %q", driver)
		return nil, nil
	}
}

func moodAnalyzer(ctx context.Context, cfg *config.Config) pipeline.MoodAnalyzer {
	switch provider := cfg.GetStringOr("MOOD_PROVIDER", "lexicon"); provider {
	case "lexicon":
		return mood.NewLexiconAnalyzer()
	case "gemini":
		analyzer, err := mood.NewGeminiAnalyzer(ctx, cfg.GetString("GEMINI_API_KEY"),
			cfg.GetStringOr("GEMINI_MODEL", mood.DefaultGeminiModel))
		if err != nil {
			log.Fatal("creating gemini analyzer error: " + err.Error())
		}
		return analyzer
	default:
		log.Fatalf("unknown MOOD_PROVIDER %q", provider)
		return nil
	}
}

func main() {
	cfg := config.New()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	usersRepo, entriesRepo := storage(cfg)
	loop := pipeline.NewLoop(logger)
	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Println("loop stopped: " + err.Error())
		}
	}()

	fetcher := weather.NewOpenMeteoFetcher(weather.Options{
		BaseURL:   cfg.GetStringOr("WEATHER_URL", weather.DefaultOpenMeteoURL),
		Latitude:  cfg.GetFloat("WEATHER_LATITUDE", 0),
		Longitude: cfg.GetFloat("WEATHER_LONGITUDE", 0),
	})
	p := pipeline.New(loop, moodAnalyzer(ctx, cfg), fetcher, pipeline.Options{
		Timeout: cfg.GetDuration("PIPELINE_TIMEOUT", pipeline.DefaultTimeout),
		Workers: int64(cfg.GetInt("PIPELINE_WORKERS", pipeline.DefaultWorkers)),
		Logger:  logger,
	})

	sess := session.New()
	journalService := service.NewJournalService(entriesRepo)
	serv := api.New(&api.ServicesList{
		Loop:           loop,
		Session:        sess,
		UserService:    service.NewUserService(usersRepo, journalService),
		JournalService: journalService,
		Editor:         pipeline.NewEditor(p, journalService, sess, nil),
		JwtService:     jwtservice.New(cfg.GetString("JWT_SECRET")),
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cleanup.CleanUp()
		cancel()
	}()

	err := serv.Run(cfg.GetStringOr("API_ADDRESS", ":8080"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
	cancel()
	<-loop.Done()
}
