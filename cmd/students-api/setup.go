package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/logger"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/backend"
	"github.com/aanand-mishra/student-records/internal/types"
)

var sampleStudents = []types.StudentInput{
	{Name: "John Doe", Email: "john.doe@example.com", Phone: "555-0101", Course: "Computer Science"},
	{Name: "Jane Smith", Email: "jane.smith@example.com", Phone: "555-0102", Course: "Mathematics"},
	{Name: "Mike Johnson", Email: "mike.johnson@example.com", Phone: "555-0103", Course: "Physics"},
	{Name: "Sarah Wilson", Email: "sarah.wilson@example.com", Phone: "555-0104", Course: "Chemistry"},
	{Name: "David Brown", Email: "david.brown@example.com", Phone: "555-0105", Course: "Biology"},
}

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the database and students table, optionally with sample data",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Insert sample students (existing emails are skipped)",
			},
		},
		Action: setup,
	}
}

func setup(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env, os.Stdout)

	repo, err := backend.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer repo.Close()

	log.Info("schema ready", slog.String("driver", cfg.Database.Driver))

	if !cmd.Bool("seed") {
		return nil
	}

	inserted, err := seed(ctx, repo, sampleStudents, log)
	if err != nil {
		return fmt.Errorf("setup: seed: %w", err)
	}

	students, err := repo.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("setup: count: %w", err)
	}

	log.Info("sample data ready",
		slog.Int("inserted", inserted),
		slog.Int("total", len(students)),
	)
	return nil
}

// seed inserts each student, skipping those whose email is already stored.
// It returns how many rows were inserted.
func seed(ctx context.Context, s storage.Storage, students []types.StudentInput, log *slog.Logger) (int, error) {
	inserted := 0
	for _, in := range students {
		_, err := s.CreateStudent(ctx, in)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, storage.ErrDuplicateEmail):
			log.Debug("sample student exists", slog.String("email", in.Email))
		default:
			return inserted, err
		}
	}
	return inserted, nil
}
