package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"outfit-planner/internal/auth"
	"outfit-planner/internal/backend"
	"outfit-planner/internal/config"
	"outfit-planner/internal/database"
	"outfit-planner/internal/metrics"
	"outfit-planner/internal/planner"
	"outfit-planner/internal/storage"
	"outfit-planner/internal/wardrobe"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	output string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "outfit-planner",
		Short:         "Plan a week of outfits from your wardrobe",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text or yaml")

	root.AddCommand(
		newWeekCommand(opts),
		newGenerateCommand(opts),
		newSaveCommand(opts),
		newTokenCommand(),
		newUserCommand(),
		newWardrobeCommand(),
		newMigrateCommand(),
		newMetricsCleanupCommand(),
	)
	return root
}

// newSession builds a planner session backed by the HTTP API.
func newSession(cmd *cobra.Command) (*planner.Session, *config.ClientConfig, error) {
	cfg, err := config.NewClientFromEnv()
	if err != nil {
		return nil, nil, err
	}
	client := backend.NewClient(cfg.BackendURL, cfg.AccessToken)
	out := cmd.ErrOrStderr()
	session := planner.NewSession(client, client, client,
		planner.WithLocation(cfg.Location),
		planner.WithNotifier(planner.NotifierFunc(func(n planner.Notification) {
			printNotification(out, n)
		})),
	)
	return session, cfg, nil
}

func newWeekCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show the outfits planned from today through the next six days",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			loadErr := session.Load(ctx)
			if err := printView(cmd.OutOrStdout(), session.View(), cfg.BackendURL, opts.output); err != nil {
				return err
			}
			return loadErr
		},
	}
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	var (
		city string
		save bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate (or regenerate) the week's outfits",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
			defer cancel()

			// The current week is the repeat-avoidance hint.
			_ = session.Load(ctx)
			genErr := session.Generate(ctx, city)
			if err := printView(cmd.OutOrStdout(), session.View(), cfg.BackendURL, opts.output); err != nil {
				return err
			}
			if genErr != nil {
				return genErr
			}
			if save {
				return session.Save(ctx)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "City used for the weekly forecast")
	cmd.Flags().BoolVar(&save, "save", false, "Save the generated week when every day is planned")
	return cmd
}

func newSaveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the current week again (e.g. to resync the calendar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := newSession(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := session.Load(ctx); err != nil {
				return err
			}
			if err := session.Save(ctx); errors.Is(err, planner.ErrIncomplete) {
				return fmt.Errorf("nothing saved: every day needs a top and a bottom")
			} else if err != nil {
				return err
			}
			return nil
		},
	}
}

func newTokenCommand() *cobra.Command {
	var (
		userID int64
		email  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET environment variable not set")
			}
			token, err := auth.NewIssuer(secret).Issue(userID, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "User id to embed in the token")
	cmd.Flags().StringVar(&email, "email", "", "Email to embed in the token")
	cmd.MarkFlagRequired("user-id")
	return cmd
}

func openDB() (*database.DB, error) {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "data/outfits.db"
	}
	return database.NewDB(path)
}

func newUserCommand() *cobra.Command {
	var u auth.User
	cmd := &cobra.Command{
		Use:   "user-add",
		Short: "Create or update a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			saved, err := auth.NewUserRepository(db.SQL).Upsert(cmd.Context(), u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s user %d (%s)\n", green("✔"), saved.ID, saved.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&u.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&u.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&u.GoogleRefreshToken, "google-refresh-token", "", "Refresh token used for calendar sync")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newWardrobeCommand() *cobra.Command {
	var (
		g     wardrobe.Garment
		image string
	)
	cmd := &cobra.Command{
		Use:   "wardrobe-add",
		Short: "Add a garment to a user's wardrobe",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var images imageStore
			if image != "" {
				staticDir := os.Getenv("STATIC_DIR")
				if staticDir == "" {
					staticDir = "static"
				}
				if images, err = storage.NewImageStore(staticDir); err != nil {
					return err
				}
			}
			saved, err := addGarment(cmd.Context(), wardrobe.NewRepository(db.SQL), images, g, image)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s garment %d: %s %s\n", green("✔"), saved.ID, saved.Color, saved.ItemType)
			return nil
		},
	}
	cmd.Flags().Int64Var(&g.UserID, "user-id", 0, "Owner id")
	cmd.Flags().StringVar(&g.ItemType, "type", "", "Item type, e.g. shirt or jeans")
	cmd.Flags().StringVar(&g.Color, "color", "", "Color")
	cmd.Flags().StringVar(&image, "image", "", "Local image file to copy into the uploads directory")
	cmd.Flags().BoolVar(&g.IsAvailable, "available", true, "Whether the garment can be worn this week")
	cmd.MarkFlagRequired("user-id")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("color")
	return cmd
}

type garmentAdder interface {
	Add(ctx context.Context, g wardrobe.Garment) (wardrobe.Garment, error)
}

type imageStore interface {
	SaveFile(path string) (string, error)
	Remove(name string) error
}

// addGarment copies imagePath into images (when set) and inserts g. A failed
// insert removes the copied image again.
func addGarment(ctx context.Context, repo garmentAdder, images imageStore, g wardrobe.Garment, imagePath string) (wardrobe.Garment, error) {
	if imagePath == "" {
		return repo.Add(ctx, g)
	}

	name, err := images.SaveFile(imagePath)
	if err != nil {
		return wardrobe.Garment{}, err
	}
	g.ImageURL = &name

	saved, err := repo.Add(ctx, g)
	if err != nil {
		if rmErr := images.Remove(name); rmErr != nil {
			return wardrobe.Garment{}, errors.Join(err, rmErr)
		}
		return wardrobe.Garment{}, err
	}
	return saved, nil
}

func newMigrateCommand() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or revert) database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := os.Getenv("DATABASE_PATH")
			if path == "" {
				path = "data/outfits.db"
			}
			if down {
				return database.RollbackMigrations(path)
			}
			return database.RunMigrations(path)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Revert every migration")
	return cmd
}

func newMetricsCleanupCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old metric records",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			affected, err := metrics.NewStore(db.SQL).Cleanup(days)
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep records for the last N days")
	return cmd
}
