package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/code-solana-sdk/pkg/rate"
	"github.com/code-payments/code-solana-sdk/pkg/retry"
	"github.com/code-payments/code-solana-sdk/pkg/retry/backoff"
	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	config BaseConfig
	logger *logrus.Logger
	log    *logrus.Entry
	closer io.Closer

	newClient func(config BaseConfig, log *logrus.Entry) (solana.Client, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(&app{
		v:         viper.New(),
		logger:    logrus.StandardLogger(),
		newClient: newClient,
	})
}

func newRootCmdWithApp(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "solkit",
		Short:        "Solana keys, addresses, numbers and transactions from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			a.config, err = loadConfig(a.v, configFile)
			if err != nil {
				return err
			}

			a.closer = configureLogger(a.config, a.logger, cmd.ErrOrStderr())
			a.log = a.logger.WithField("type", "solkit")
			a.log.WithField("command", cmd.CommandPath()).Debug("running command")
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	registerFlags(root)
	if err := bindConfig(a.v, root); err != nil {
		// Flags are registered just above, so a bind failure is a programming error.
		panic(err)
	}

	root.AddCommand(
		newPubkeyCmd(a),
		newPDACmd(a),
		newATACmd(a),
		newNumCmd(a),
		newTxCmd(a),
		newBlockhashCmd(a),
		newBalanceCmd(a),
		newAirdropCmd(a),
		newMemoCmd(a),
	)
	return root
}

func newClient(config BaseConfig, log *logrus.Entry) (solana.Client, error) {
	endpoint, err := solana.ResolveEnvironment(config.RPC)
	if err != nil {
		return nil, err
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if config.RateLimit > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(config.RateLimit))
	}

	retrier := retry.NewRetrier(
		retry.RetriableErrors(solana.ErrRateLimited, solana.ErrServiceError),
		retry.Limit(config.Retries+1),
		retry.BackoffWithJitter(backoff.Capped(backoff.Exponential(250*time.Millisecond, 2), 5*time.Second), 5*time.Second, 0.1),
	)

	return solana.New(
		string(endpoint),
		solana.WithLogger(log.WithField("type", "solana/client")),
		solana.WithLimiter(limiter),
		solana.WithRetrier(retrier),
	), nil
}

// rpc returns a client and a context bounded by the configured timeout.
func (a *app) rpc(cmd *cobra.Command) (solana.Client, context.Context, context.CancelFunc, error) {
	client, err := a.newClient(a.config, a.log)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.config.Timeout)
	return client, ctx, cancel, nil
}

func (a *app) commitment() solana.Commitment {
	// Validated in loadConfig.
	c, _ := solana.ParseCommitment(a.config.Commitment)
	return c
}

func (a *app) loadKeypair() (*solana.KeypairSigner, error) {
	if a.config.Keypair == "" {
		return nil, errors.New("no keypair configured, set --keypair or SOLKIT_KEYPAIR")
	}

	b, err := os.ReadFile(a.config.Keypair)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair %s", a.config.Keypair)
	}
	return solana.KeypairSignerFromJSON(b)
}

func (a *app) print(cmd *cobra.Command, v interface{}) error {
	return newPrinter(a.config.Output, cmd.OutOrStdout()).print(v)
}
