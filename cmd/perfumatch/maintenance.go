package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/perfumatch/internal/services"
	"github.com/example/perfumatch/internal/utils"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the whole catalog (search history is kept)",
	RunE:  runReset,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Meilisearch perfume index",
	RunE:  runReindex,
}

var adminHashCmd = &cobra.Command{
	Use:   "admin-hash <password>",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := utils.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var resetConfirmed bool

func init() {
	rootCmd.AddCommand(resetCmd, reindexCmd, adminHashCmd)
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Confirm the reset")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetConfirmed {
		return fmt.Errorf("refusing to reset without --yes")
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	res, err := services.NewCatalogService(rt.db, rt.log, nil).Reset(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}
	fmt.Printf("%s removed %d perfumes, %d similarities, %d notes, %d brands\n",
		titleStyle.Render("RESET:"), res.Perfumes, res.Similarities, res.Notes, res.Brands)
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	indexer := services.NewSearchIndexer(rt.db, rt.log, rt.cfg.MeiliURL, rt.cfg.MeiliAPIKey, rt.layers())
	if indexer == nil {
		return fmt.Errorf("MEILI_URL is not set")
	}

	n, err := indexer.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	fmt.Printf("%s %s perfumes indexed\n", titleStyle.Render("REINDEX:"), scoreStyle.Render(fmt.Sprint(n)))
	return nil
}
