// Package cli - команды импортера Excel-файлов.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"orubacontacts/internal/config"
	"orubacontacts/internal/repository"
	"orubacontacts/internal/service"
	"orubacontacts/pkg/database"
	"orubacontacts/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrRowsFailed возвращается, если импорт завершился, но часть строк отклонена.
var ErrRowsFailed = errors.New("some rows failed to import")

// Env - зависимости одной команды импорта.
type Env struct {
	Imports service.ImportService
	Log     *zap.Logger
	Close   func()
}

// Opener открывает окружение; в тестах подменяется.
type Opener func(ctx context.Context, configPath string) (*Env, error)

type RootOptions struct {
	ConfigPath string
	Sheet      string
}

func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = OpenEnv
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Import raw Trello data and reference lists from Excel",
		// ошибку печатает main
		SilenceErrors: true,
		Long: `Reads xlsx workbooks into the contact matching database.

Every run is recorded in import_runs. The command exits with status 1
when at least one row was rejected.`,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", os.Getenv("CONFIG_PATH"), "YAML config file (env variables override it)")
	cmd.PersistentFlags().StringVar(&opts.Sheet, "sheet", "", "sheet name (default: first sheet)")

	cmd.AddCommand(newImportCommand(opts, open, importKind{
		use:   "raw-data",
		short: "Import raw records (title, description, list_name, short_url, full_url)",
		run:   service.ImportService.ImportRawData,
	}))
	cmd.AddCommand(newImportCommand(opts, open, importKind{
		use:   "hospitals",
		short: "Upsert hospitals by name; cities, types and subtypes are created on demand",
		run:   service.ImportService.ImportHospitals,
	}))
	cmd.AddCommand(newImportCommand(opts, open, importKind{
		use:   "job-titles",
		short: "Upsert job titles by slug",
		run:   service.ImportService.ImportJobTitles,
	}))
	cmd.AddCommand(NewTemplateCommand())

	return cmd
}

// OpenEnv поднимает конфиг, логгер и базу так же, как сервер.
func OpenEnv(ctx context.Context, configPath string) (*Env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat, "oruba-importer")
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DB.Database(), log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}

	return &Env{
		Imports: service.NewImportService(repository.NewStore(db), log),
		Log:     log,
		Close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			_ = log.Sync()
		},
	}, nil
}

type importKind struct {
	use   string
	short string
	run   func(s service.ImportService, ctx context.Context, path, sheet string) (*service.ImportResult, error)
}

func newImportCommand(opts *RootOptions, open Opener, kind importKind) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:          kind.use,
		Short:        kind.short,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd.Context(), opts.ConfigPath)
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := kind.run(env.Imports, cmd.Context(), file, opts.Sheet)
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), result)
			if result.Failed() {
				return ErrRowsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "xlsx file to import")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func printSummary(w io.Writer, result *service.ImportResult) {
	run := result.Run
	fmt.Fprintf(w, "Import %s from %s\n", run.Kind, run.SourceFile)
	fmt.Fprintf(w, "  total:      %d\n", run.Total)
	fmt.Fprintf(w, "  successful: %d\n", run.Successful)
	fmt.Fprintf(w, "  skipped:    %d\n", run.Skipped)
	fmt.Fprintf(w, "  failed:     %d\n", run.Failed)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Error)
	}
}
