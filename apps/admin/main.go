package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/services/logger"
	"github.com/trezcool/escola/storage/cache/redis"
	"github.com/trezcool/escola/storage/database"
	"github.com/trezcool/escola/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	ctx := context.Background()

	// set up DB
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	cli := commandLine{
		conf:   conf,
		db:     db.DB,
		logger: logger,
		out:    os.Stdout,
		withRepo: func(ctx context.Context, fn func(student.Repository) error) error {
			return sqlxrepos.WithTx(ctx, db, fn)
		},
	}

	// reports cached by the API must not outlive an import
	if conf.Redis.URL != "" {
		client, err := rediscache.Open(ctx, conf.Redis.URL)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer client.Close()
		cli.cache = rediscache.NewReportCache(client, conf.Redis.ReportTTL)
	}

	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("error: %s", err), err)
	}
	_ = db.Close()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
