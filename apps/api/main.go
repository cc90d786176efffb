package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // /debug/pprof
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	echoapi "github.com/examprep/portal/apps/api/echo"
	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/catalog"
	"github.com/examprep/portal/core/cheatsheet"
	"github.com/examprep/portal/core/codequestion"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/savedq"
	"github.com/examprep/portal/services/backend"
	logsvc "github.com/examprep/portal/services/logger"
	mediasvc "github.com/examprep/portal/services/media"
	"github.com/examprep/portal/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewStdoutLogger("API", conf.LogLevel), conf)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	backendLogger := logsvc.NewRollbarLogger(logsvc.NewStdoutLogger("BACKEND", conf.LogLevel), conf)

	// set up backend client
	client, err := backend.NewFromConfig(conf.Backend, backendLogger)
	if err != nil {
		logger.Fatal("setting up backend client", err)
	}
	res := client.Resources()

	// set up visitor storage
	store, closeStore, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage", conf.Storage.Driver), err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	// set up media
	media, err := mediasvc.New(conf)
	if err != nil {
		logger.Fatal("setting up media storage", err)
	}

	// set up services
	md := core.NewMarkdown()
	validate, translator := core.NewValidator()
	savedSvc := savedq.NewService(client, client, media, logger, savedq.Options{
		Concurrency: conf.Backend.HydrateConcurrency,
		SyncTimeout: conf.Backend.Timeout,
	})
	catalogCache := catalog.NewCache(res.Exams, res.Topics, res.Subtopics, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// refresh the catalog in the background
	scheduler := cron.New(cron.WithLogger(logsvc.CronLogger(logger)))
	if _, err = catalogCache.Schedule(scheduler, conf.CatalogRefreshSpec, conf.Backend.Timeout); err != nil {
		logger.Fatal("scheduling jobs", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		echoapi.Options{
			Address:        conf.Server.Address,
			AppName:        conf.AppName,
			Debug:          conf.Debug,
			TestMode:       conf.TestMode,
			DisableReqLogs: conf.Server.DisableReqLogs,
			CookieSecure:   conf.Server.CookieSecure,
		},
		shutdown,
		&echoapi.Deps{
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Storage:       store,
			Auth:          client,
			SavedSvc:      savedSvc,
			QuestionSvc:   question.NewService(res.Questions, media, logger),
			Catalog:       catalogCache,
			CheatsheetSvc: cheatsheet.NewService(res.Cheatsheets, md),
			CodeSvc:       codequestion.NewService(res.CodeQuestions, codequestion.NewPresenter(md, media, logger)),
			Media:         media,
			Collections: echoapi.Collections{
				Exams:             res.Exams,
				Topics:            res.Topics,
				Subtopics:         res.Subtopics,
				ExamPatterns:      res.ExamPatterns,
				Questions:         res.Questions,
				Cheatsheets:       res.Cheatsheets,
				ProgrammingTopics: res.ProgrammingTopics,
				CodeQuestions:     res.CodeQuestions,
			},
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}
