package main

import (
	"log"
	"os"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/services/api"
	"github.com/trezcool/escola/services/email"
	"github.com/trezcool/escola/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "CLI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	cli := commandLine{
		conf:     conf,
		backend:  apisvc.NewClientFromConfig(conf),
		notifier: emailsvc.NewNotifier(conf, logger),
		logger:   logger,
		in:       os.Stdin,
		out:      os.Stdout,
		stdinFd:  int(os.Stdin.Fd()),
	}
	err := cli.run(os.Args)
	logger.Close()
	if err != nil {
		if err != errHelp {
			log.New(os.Stderr, "", 0).Printf("\nerro: %s\n", err)
		}
		os.Exit(1)
	}
}
