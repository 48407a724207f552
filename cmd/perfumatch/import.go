package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/importer"
	"github.com/example/perfumatch/internal/services"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import raw catalog files into the database",
	Long: `Reads every configured source file (or a single one given with
--source/--file) and writes brands, families, notes and perfumes.
Perfumes already present for the same brand are skipped.`,
	RunE: runImport,
}

var (
	importSource string
	importFile   string
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importSource, "source", "s", "", "Only import this source ("+strings.Join(importer.SourceNames(), ", ")+")")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Import this file instead of the configured ones (requires --source)")
}

func runImport(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	files, err := selectSources(rt.cfg.Sources, importSource, importFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	batches, err := importer.LoadAll(ctx, files, rt.log)
	if err != nil {
		return err
	}

	results, err := importer.New(rt.db, rt.log, rt.cfg.ImportBatchSize).ImportAll(ctx, batches)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	notifier := services.NewTelegramNotifier(rt.cfg.TelegramBotToken, rt.cfg.TelegramAdminChat, rt.log)
	if err := notifier.NotifyImport(results); err != nil {
		rt.log.Warn("import notification failed", "error", err)
	}

	if jsonOutput {
		return printJSON(results)
	}

	fmt.Printf("\n%s\n\n", titleStyle.Render("IMPORT"))
	for _, r := range results {
		fmt.Printf("  %-10s %s created, %s skipped, %s failed\n",
			brandStyle.Render(r.Source),
			scoreStyle.Render(fmt.Sprint(r.Created)),
			dimStyle.Render(fmt.Sprint(r.Skipped)),
			dimStyle.Render(fmt.Sprint(r.Failed)))
	}
	fmt.Println()
	return nil
}

func selectSources(all []config.SourceFile, source, file string) ([]config.SourceFile, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	if source != "" {
		if _, err := importer.SourceFor(source); err != nil {
			return nil, err
		}
	}

	if file != "" {
		if source == "" {
			return nil, fmt.Errorf("--file requires --source")
		}
		return []config.SourceFile{{Source: source, Path: file}}, nil
	}

	if source == "" {
		return all, nil
	}
	var out []config.SourceFile
	for _, f := range all {
		if f.Source == source {
			out = append(out, f)
		}
	}
	return out, nil
}
