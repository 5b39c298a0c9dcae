package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"surveyhub/config"
	"surveyhub/db"
	"surveyhub/internal/events"
	"surveyhub/internal/logger"
	"surveyhub/models"
	"surveyhub/services"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "surveyadmin",
	Short: "Administer the survey store",
	Long: `Maintenance commands for the survey database.

Available subcommands:
  ensure-indexes - Create the indexes the server relies on
  create-survey  - Create a survey, optionally with questions
  list-surveys   - Print stored surveys
  responses      - Print the responses submitted for a survey
  watch-events   - Follow the session event stream in Redis`,
	SilenceUsage: true,
}

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the indexes the server relies on",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *db.Store) error {
			if err := store.EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes ensured")
			return nil
		})
	},
}

var (
	createNumber    string
	createName      string
	createQuestions []string
)

var createSurveyCmd = &cobra.Command{
	Use:   "create-survey",
	Short: "Create a survey, optionally with questions",
	Example: `  surveyadmin create-survey --number S1 --name "Customer feedback" \
    --question "How did we do?" --question "Would you come back?"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *db.Store) error {
			svc := services.NewSurveyService(store, services.Options{})
			survey, err := svc.Create(ctx, services.CreateSurveyInput{
				SurveyNumber: createNumber,
				Name:         createName,
				Questions:    questionsFromFlags(createQuestions),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created survey %s (%s)\n", survey.ID.Hex(), survey.Ref())
			return nil
		})
	},
}

var listSurveysLimit int64

var listSurveysCmd = &cobra.Command{
	Use:   "list-surveys",
	Short: "Print stored surveys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *db.Store) error {
			surveys, err := services.NewSurveyService(store, services.Options{}).ListSurveys(ctx, listSurveysLimit)
			if err != nil {
				return err
			}
			return printSurveys(cmd.OutOrStdout(), surveys)
		})
	},
}

var (
	responsesBy    string
	responsesLimit int64
)

var responsesCmd = &cobra.Command{
	Use:   "responses <survey id or number>",
	Short: "Print the responses submitted for a survey as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := models.ParseSurveyRef(args[0], responsesBy)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(ctx context.Context, store *db.Store) error {
			surveys := services.NewSurveyService(store, services.Options{})
			list, err := services.NewResponseService(store, surveys, services.Options{}).List(ctx, ref, responsesLimit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		})
	},
}

var watchGroup string

var watchEventsCmd = &cobra.Command{
	Use:   "watch-events",
	Short: "Follow the session event stream in Redis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is not configured")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rdb, err := db.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()

		out := cmd.OutOrStdout()
		consumer := events.NewConsumer(rdb, watchGroup, func(_ context.Context, ev *events.Event) error {
			return printEvent(out, ev)
		})
		consumer.OnError(func(err error) { fmt.Fprintln(cmd.ErrOrStderr(), "watch:", err) })
		return consumer.Run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yml", "Path to config file")

	createSurveyCmd.Flags().StringVar(&createNumber, "number", "", "Survey number (natural key)")
	createSurveyCmd.Flags().StringVar(&createName, "name", "", "Survey name")
	createSurveyCmd.Flags().StringArrayVar(&createQuestions, "question", nil, "Open question text (repeatable)")

	listSurveysCmd.Flags().Int64Var(&listSurveysLimit, "limit", 0, "Maximum surveys to print (0 = server default)")
	responsesCmd.Flags().Int64Var(&responsesLimit, "limit", 0, "Maximum responses to print (0 = server default)")
	responsesCmd.Flags().StringVar(&responsesBy, "by", "", "Reference scheme: id or number (default: inferred)")

	watchEventsCmd.Flags().StringVar(&watchGroup, "group", events.DefaultGroup, "Redis consumer group")

	rootCmd.AddCommand(ensureIndexesCmd, createSurveyCmd, listSurveysCmd, responsesCmd, watchEventsCmd)
}

// withStore loads the config, connects, runs fn and disconnects.
func withStore(parent context.Context, fn func(ctx context.Context, store *db.Store) error) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer logg.Sync()

	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	store, err := db.Connect(ctx, cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logg.Warn("mongo disconnect failed", "error", err)
		}
	}()
	return fn(ctx, store)
}

func questionsFromFlags(texts []string) []models.Question {
	qs := make([]models.Question, 0, len(texts))
	for _, t := range texts {
		qs = append(qs, models.Question{Text: t, Kind: models.QuestionOpen})
	}
	return qs
}

func printEvent(w io.Writer, ev *events.Event) error {
	_, err := fmt.Fprintf(w, "%s  %-16s  session=%s  %s\n",
		time.Unix(ev.Timestamp, 0).UTC().Format(time.RFC3339), ev.Type, ev.SessionID, string(ev.Payload))
	return err
}

func printSurveys(w io.Writer, surveys []models.Survey) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tNAME\tQUESTIONS")
	for _, s := range surveys {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID.Hex(), s.SurveyNumber, s.Name, len(s.Questions))
	}
	return tw.Flush()
}
