package main

import (
	"context"
	"fmt"
	"os"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/savedq"
	"github.com/examprep/portal/services/backend"
	logsvc "github.com/examprep/portal/services/logger"
	"github.com/examprep/portal/storage/database"
	"github.com/examprep/portal/storage/file"
)

// localScope is the single visitor of the CLI storage file.
const localScope = "local"

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewStdoutLogger("CLI", "warn")
	if conf.Debug {
		logger = logsvc.NewStdoutLogger("CLI", conf.LogLevel)
	}

	client, err := backend.NewFromConfig(conf.Backend, logger)
	errAndDie(err)

	path := conf.Storage.FilePath
	if path == "" {
		path, err = filestore.DefaultPath()
		errAndDie(err)
	}
	store, err := filestore.Open(path)
	errAndDie(err)

	// syncs finish before the command returns, the process exits right after
	savedOpts := savedq.Options{Concurrency: conf.Backend.HydrateConcurrency}
	validate, _ := core.NewValidator()
	cli := commandLine{
		auth:      client,
		saved:     savedq.NewSyncService(client, client, nil, logger, savedOpts),
		questions: question.NewService(client.Resources().Questions, nil, logger),
		store:     store.Scope(localScope),
		validate:  validate,
		out:       os.Stdout,
		migrate: func(command string) error {
			db, err := database.Open(context.Background(), conf.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(db, command)
		},
	}
	if err := cli.run(context.Background(), os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
