package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/venturetk/VenturePortfolio/config"
)

// extensionEnv returns the environment of an extension: the current one
// plus the resolved settings as VP_* variables.
func extensionEnv() ([]string, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	env := os.Environ()
	for key, value := range map[string]string{
		config.EnvPortfolio:         cfg.Portfolio,
		config.EnvStore:             cfg.Store,
		config.EnvName:              cfg.Name,
		config.EnvQuote:             cfg.Quote,
		config.EnvLogLevel:          cfg.LogLevel.String(),
		config.EnvWithdrawBasis:     cfg.WithdrawBasis.String(),
		config.EnvInternalTransfers: cfg.InternalTransfers.String(),
		config.EnvQuotesFile:        cfg.Quotes.File,
		config.EnvQuotesPath:        cfg.Quotes.Path,
		config.EnvQuotesTTL:         cfg.Quotes.TTL.String(),
		config.EnvMetricsFile:       cfg.MetricsFile,
	} {
		env = append(env, key+"="+value)
	}
	return env, nil
}

// RunExtension attempts to find and execute an external vpm-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "vpm-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		return false, 0
	}
	env, err := extensionEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load configuration: %v\n", err)
		return true, 1
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = env

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
