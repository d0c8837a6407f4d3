package main

import (
	"github.com/annel0/parkour-course/internal/config"
	"github.com/annel0/parkour-course/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "coursectl",
		Short:         "coursectl - инструменты паркур-трассы",
		Long:          `coursectl проверяет и генерирует карты трассы, показывает порядок чекпоинтов и управляет сохранённым прогрессом игроков.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			logging.SetDefault(logging.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}, level))
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "путь к YAML конфигурации сервера")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "подробный лог")

	root.AddCommand(
		newInspectCmd(opts),
		newValidateCmd(opts),
		newGenerateCmd(),
		newTokenCmd(opts),
		newCheckpointCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}
