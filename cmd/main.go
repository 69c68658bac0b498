package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vipowerus/schedule-bot/internal/server"

	_ "time/tzdata"
)

var (
	configPath string
	dumpGroup  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule-bot",
		Short: "Telegram bot serving a class schedule kept in Google Sheets",
		RunE:  runServe,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config-path", "configs/env.toml", "path to config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bot (default)",
		RunE:  runServe,
	})

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Load the spreadsheet once and print a group's schedule",
		RunE:  runDump,
	}
	dump.Flags().StringVar(&dumpGroup, "group", "", "group to print (defaults to the first configured one)")
	cmd.AddCommand(dump)

	cmd.SilenceUsage = true
	return cmd
}

// loadConfig reads the optional TOML file and applies the environment on top.
func loadConfig() (*server.Config, error) {
	config := server.NewConfig()
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, errors.Wrapf(err, "decode %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(config)
	return s.Start(ctx)
}

func runDump(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	group := dumpGroup
	if group == "" && len(config.Groups) > 0 {
		group = config.Groups[0]
	}
	if !config.HasGroup(group) {
		return errors.Errorf("unknown group %q", group)
	}
	return server.Dump(cmd.Context(), config, group, cmd.OutOrStdout())
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Fatal(err)
	}
}
