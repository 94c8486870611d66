// Command web3tools runs single node queries and contract deployments from
// the command line and prints the result as JSON.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"web3tools/config"
	"web3tools/logging"
	"web3tools/web3tools"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a yaml, toml or json config file",
	}
	rpcURLFlag = &cli.StringFlag{
		Name:  "rpc-url",
		Usage: "Node JSON-RPC endpoint (overrides config)",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Per-request timeout (overrides config)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "Log level: trace, debug, info, warn, error, crit (overrides config)",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Also write logs to this file, rotated by size (overrides config)",
	}
)

// app holds what the Before hook sets up for the commands.
type app struct {
	tools     *web3tools.Tools
	logCloser io.Closer
}

func newApp() *cli.App {
	a := &app{}
	return &cli.App{
		Name:  "web3tools",
		Usage: "query an Ethereum node and deploy contracts",
		Flags: []cli.Flag{
			configFlag,
			rpcURLFlag,
			timeoutFlag,
			logLevelFlag,
			logFileFlag,
		},
		Before:   a.before,
		After:    a.after,
		Commands: a.commands(),
	}
}

func (a *app) before(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	if c.IsSet(rpcURLFlag.Name) {
		cfg.ProviderURL = c.String(rpcURLFlag.Name)
	}
	if c.IsSet(timeoutFlag.Name) {
		cfg.Timeout = c.Duration(timeoutFlag.Name)
	}
	if c.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = c.String(logLevelFlag.Name)
	}
	if c.IsSet(logFileFlag.Name) {
		cfg.Log.File = c.String(logFileFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.logCloser, err = logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	log.Debug("Connecting to node", "url", cfg.ProviderURL, "timeout", cfg.Timeout)

	a.tools, err = web3tools.New(cfg.ProviderURL,
		web3tools.WithTimeout(cfg.Timeout),
		web3tools.WithPollInterval(cfg.PollInterval),
		web3tools.WithLogger(log.Root()),
	)
	return err
}

func (a *app) after(c *cli.Context) error {
	if a.tools != nil {
		a.tools.Close()
	}
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
