package main

import (
	"log"
	"os"

	echoapi "github.com/quangvd/barem/apps/api/echo"
	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
	"github.com/quangvd/barem/core/grading"
	"github.com/quangvd/barem/core/similarity"
	"github.com/quangvd/barem/services/gradeapi"
	logsvc "github.com/quangvd/barem/services/logger"
	"github.com/quangvd/barem/storage/inmem"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stderr, conf.AppName+" ", log.LstdFlags|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" && !conf.Debug {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewConsoleLogger(std)
	}

	session, err := core.NewSession(inmem.NewTokenFile(conf.TokenFile), func() {
		logger.Warn("session expired; log in again")
	})
	errAndDie(err)

	client := gradeapi.NewClient(conf, session, logger)
	examSvc := exam.NewService(client, logger)
	watcher := exam.NewParseWatcher(client, conf.PollInterval)
	gradingMgr := grading.NewManager(client, examSvc, logger, conf.AutosaveDebounce)
	similaritySvc := similarity.NewService(client, inmem.NewResultStore(), conf, logger)

	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:          conf.Server.Addr,
			Conf:          conf,
			Logger:        logger,
			Session:       session,
			AuthAPI:       client,
			ExamSvc:       examSvc,
			Watcher:       watcher,
			GradingMgr:    gradingMgr,
			SimilaritySvc: similaritySvc,
		},
	)
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
