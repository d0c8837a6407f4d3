package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/parkour-course/internal/app"
	"github.com/annel0/parkour-course/internal/auth"
	"github.com/annel0/parkour-course/internal/course"
	"github.com/annel0/parkour-course/internal/storage"
	"github.com/annel0/parkour-course/internal/world"
	"github.com/spf13/cobra"
)

// loadCourse строит индекс трассы по конфигурации; mapPath перекрывает course.map_path
func loadCourse(opts *rootOptions, mapPath string) (*course.Course, *world.Map, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, nil, err
	}
	if mapPath != "" {
		cfg.Course.MapPath = mapPath
	}
	rules, err := app.BuildRules(cfg.Course)
	if err != nil {
		return nil, nil, err
	}
	m, err := app.LoadMap(cfg.Course)
	if err != nil {
		return nil, nil, err
	}
	return course.Build(m.Blocks, rules.Markers), m, nil
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var mapPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [map]",
		Short: "Показать порядок чекпоинтов и конвейеры",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				mapPath = args[0]
			}
			crs, _, err := loadCourse(opts, mapPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"checkpoints": crs.Checkpoints(),
					"conveyors":   crs.Conveyors(),
				})
			}

			fmt.Fprintf(out, "🏁 Checkpoints: %d\n", crs.Len())
			for _, cp := range crs.Checkpoints() {
				fmt.Fprintf(out, "  #%-3d block=%v spawn=%v progress=%.0f%%\n",
					cp.Index, cp.Block, cp.Spawn, crs.Percentage(cp.Index))
			}
			fmt.Fprintf(out, "➡️  Conveyors: %d\n", len(crs.Conveyors()))
			for _, cv := range crs.Conveyors() {
				fmt.Fprintf(out, "  block=%v direction=%v\n", cv.Block, cv.Direction)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mapPath, "map", "m", "", "файл карты (.json, .json.gz, .json.zst)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "вывод в JSON")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <map>",
		Short: "Проверить файл карты по схеме и наличие чекпоинтов",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crs, m, err := loadCourse(opts, args[0])
			if err != nil {
				return err
			}
			if crs.Empty() {
				return fmt.Errorf("%s: %w", args[0], course.ErrEmptyCourse)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s: %d blocks, %d checkpoints, %d conveyors\n",
				args[0], len(m.Blocks), crs.Len(), len(crs.Conveyors()))
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var seed int64
	var checkpoints int
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Сгенерировать карту трассы",
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkpoints < 1 {
				return errors.New("--checkpoints must be at least 1")
			}
			m := world.NewCourseGenerator(seed, checkpoints).Generate()
			if err := world.WriteMapFile(out, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗺️  %s: %d blocks, %d checkpoints (seed=%d)\n", out, len(m.Blocks), checkpoints, seed)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 42, "зерно генератора")
	cmd.Flags().IntVar(&checkpoints, "checkpoints", 10, "количество чекпоинтов")
	cmd.Flags().StringVarP(&out, "out", "o", "course.json", "выходной файл (.json, .json.gz, .json.zst)")
	return cmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var operator string
	var ttl time.Duration
	var admin bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить токен для админского API (секрет из admin.jwt_secret)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Admin.JWTSecret == "" {
				return errors.New("admin.jwt_secret is not set")
			}
			a, err := auth.NewAuthenticator(cfg.Admin.JWTSecret)
			if err != nil {
				return err
			}
			token, err := a.GenerateToken(operator, admin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "coursectl", "имя оператора в токене")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "срок действия")
	cmd.Flags().BoolVar(&admin, "admin", true, "права администратора")
	return cmd
}

func newCheckpointCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Сохранённый чекпоинт игрока в хранилище из конфигурации",
	}

	withRepo := func(fn func(ctx context.Context, repo storage.CheckpointRepo, playerID string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if err := storage.ValidatePlayerID(args[0]); err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			repo, err := storage.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer repo.Close()
			return fn(ctx, repo, args[0])
		}
	}

	get := &cobra.Command{
		Use:   "get <player>",
		Short: "Показать сохранённый чекпоинт",
		Args:  cobra.ExactArgs(1),
	}
	get.RunE = withRepo(func(ctx context.Context, repo storage.CheckpointRepo, playerID string) error {
		rec, found, err := repo.Load(ctx, playerID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no saved checkpoint for %s", playerID)
		}
		enc := json.NewEncoder(get.OutOrStdout())
		return enc.Encode(rec)
	})

	del := &cobra.Command{
		Use:   "delete <player>",
		Short: "Удалить сохранённый чекпоинт (игрок начнёт с первого)",
		Args:  cobra.ExactArgs(1),
	}
	del.RunE = withRepo(func(ctx context.Context, repo storage.CheckpointRepo, playerID string) error {
		if err := repo.Delete(ctx, playerID); err != nil {
			return err
		}
		fmt.Fprintf(del.OutOrStdout(), "🧹 %s cleared\n", playerID)
		return nil
	})

	cmd.AddCommand(get, del)
	return cmd
}
