package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-battle-service/internal/config"
	"quiz-battle-service/internal/infra/file"
	pgloader "quiz-battle-service/internal/infra/postgres"
)

// NewImportCmd loads YAML quiz files into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <quiz.yaml>...",
		Short: "Import YAML quizzes into Postgres",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, args)
		},
	}
}

func runImport(ctx context.Context, configPath string, paths []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := pgloader.NewQuizLoader(pool)

	for _, path := range paths {
		quiz, err := file.ReadQuiz(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if quiz.ID == "" {
			return fmt.Errorf("%s: quiz id is required", path)
		}
		if err := store.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
		log.Printf("imported quiz %s (%d questions)", quiz.ID, len(quiz.Questions))
	}
	return nil
}
