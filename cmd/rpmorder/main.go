package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/ralt/rpmorder/internal/cli"
	"github.com/ralt/rpmorder/internal/models"
	"github.com/sirupsen/logrus"
)

// exitProblems is returned when the transaction does not resolve, as
// opposed to bad input or I/O failures
const exitProblems = 2

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Error(err)

		var txnErr *models.TxnError
		if errors.As(err, &txnErr) && txnErr.Type == models.ErrResolve {
			stop()
			os.Exit(exitProblems)
		}
		stop()
		os.Exit(1)
	}
}
