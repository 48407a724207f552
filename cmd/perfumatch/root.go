package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/database"
	plog "github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "perfumatch",
	Short: "Import perfume catalogs and find affordable alternatives",
	Long: `PerfuMatch imports scraped perfume catalogs, scores every luxury
perfume against every alternative-brand perfume and answers
search and alternative queries.

Pipeline: import → similarities compute → search / alternatives`,
	SilenceUsage: true,
}

var jsonOutput bool

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	brandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	scoreStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

func init() {
	rootCmd.Version = "0.1.0"
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// appEnv is what every subcommand needs from the environment.
type appEnv struct {
	cfg *config.Config
	log *plog.Logger
	db  *gorm.DB
}

func setup() (*appEnv, error) {
	cfg := config.Load()
	log, err := plog.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	return &appEnv{
		cfg: cfg,
		log: log,
		db:  database.Connect(cfg.DatabaseURL, cfg.LogMode),
	}, nil
}

func (r *appEnv) close() {
	r.log.Sync()
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (r *appEnv) layers() services.LayerResolver {
	return services.LayerResolverFor(r.cfg.NoteLayers)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPrice(p *float64, currency string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", *p, currency)
}
