package main

import (
	"log"
	"os"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
	"github.com/quangvd/barem/services/gradeapi"
	logsvc "github.com/quangvd/barem/services/logger"
	"github.com/quangvd/barem/storage/inmem"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	session, err := core.NewSession(inmem.NewTokenFile(conf.TokenFile), nil)
	errAndDie(err)

	client := gradeapi.NewClient(conf, session, logsvc.NewConsoleLogger(logger))

	cli := commandLine{
		session: session,
		authApi: client,
		examSvc: exam.NewService(client, logsvc.NewConsoleLogger(logger)),
		watcher: exam.NewParseWatcher(client, conf.PollInterval),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
