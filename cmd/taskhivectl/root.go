package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskhive/taskhive/internal/app/bootstrap"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/pkg/config"
	"github.com/taskhive/taskhive/pkg/logger"
)

// cliEnv carries what the commands need from the outside world.
type cliEnv struct {
	cfg          config.AppConfig
	log          *slog.Logger
	out          io.Writer
	openStore    func(context.Context, config.AppConfig, *slog.Logger) (repository.Store, error)
	readPassword func(prompt string) (string, error)
}

func defaultEnv() *cliEnv {
	config.LoadDotenv()
	cfg := config.LoadAppConfig()
	return &cliEnv{
		cfg:          cfg,
		log:          logger.NewWithWriter(os.Stderr, "taskhivectl", logger.ParseLevel(cfg.LogLevel)),
		out:          os.Stdout,
		openStore:    bootstrap.OpenStore,
		readPassword: promptPassword(os.Stdin, os.Stderr),
	}
}

func newRootCmd(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskhivectl",
		Short:         "Administer a TaskHive deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env.cfg.StoreDriver, "driver", env.cfg.StoreDriver, "store driver (mongo|postgres|memory)")
	root.SetOut(env.out)
	root.AddCommand(newMigrateCmd(env))
	root.AddCommand(newUserCmd(env))
	return root
}

// promptPassword reads without echo from a terminal and falls back to one
// line per call when stdin is piped.
func promptPassword(in *os.File, prompt io.Writer) func(string) (string, error) {
	reader := bufio.NewReader(in)
	return func(label string) (string, error) {
		fmt.Fprint(prompt, label)
		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(prompt)
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return string(b), nil
		}
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
