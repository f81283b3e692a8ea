package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/httpapi"
	"github.com/stockup/stockup/internal/services/advisor"
	"github.com/stockup/stockup/internal/tui"
)

var headless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the advisor with the terminal console",
	Long: `Run the reminder engine, the configured position source, the data
file watcher and, when enabled, the HTTP API. Unless --headless is set the
terminal console runs in front and quitting it stops everything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// The console owns the terminal, so logs only go to the file
		s, err := openSession(ctx, headless)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := advisor.New(s.cfg, s.db, advisor.WithLogger(s.logger))
		if err != nil {
			return err
		}

		var runners []advisor.Runner
		if s.cfg.HTTP.Enabled {
			runners = append(runners, httpRunner(s, svc))
		}
		if !headless {
			runners = append(runners, consoleRunner(s, svc))
		}

		s.logger.Info("Stock Up starting",
			zap.String("version", Version),
			zap.String("household", s.cfg.Household.Name),
			zap.Bool("headless", headless))

		return svc.Run(ctx, runners...)
	},
}

func init() {
	runCmd.Flags().BoolVar(&headless, "headless", false, "Run without the terminal console")
}

func httpRunner(s *session, svc *advisor.Service) advisor.Runner {
	srv := httpapi.New(s.cfg.HTTP, httpapi.Deps{
		Positions: svc.Feed(),
		Pantry:    svc.Pantry(),
		Stores:    svc.Registry(),
		Nearest:   svc.Engine(),
		Reminders: svc.Reminders(),
		Health:    svc.DB(),
	}, s.logger)
	return srv.Run
}

func consoleRunner(s *session, svc *advisor.Service) advisor.Runner {
	return func(ctx context.Context) error {
		events, cancel := svc.Engine().Subscribe(s.cfg.Reminder.SubscriberBuffer)
		defer cancel()

		return tui.Run(ctx, s.cfg, tui.Deps{
			Pantry:    svc.Pantry(),
			Stores:    svc.Registry(),
			Positions: svc.Feed(),
			Reminders: svc.Reminders(),
			Refresher: svc,
			Events:    events,
		})
	}
}
