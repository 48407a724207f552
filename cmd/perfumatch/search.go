package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/perfumatch/internal/services"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search perfumes by name, notes or family",
	Long: `Searches the catalog. With --type notes the term is a comma separated
note list and perfumes carrying a strict majority of them are returned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var alternativesCmd = &cobra.Command{
	Use:   "alternatives <perfume-id>",
	Short: "List the alternatives of a perfume, best first",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlternatives,
}

var (
	searchType   string
	searchGender string
	searchLimit  int
	altLimit     int
)

func init() {
	rootCmd.AddCommand(searchCmd, alternativesCmd)
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "name", "Search type: name, notes or family")
	searchCmd.Flags().StringVarP(&searchGender, "gender", "g", "", "Restrict to men, women or unisex")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", services.DefaultLimit, "Maximum results to show")
	alternativesCmd.Flags().IntVarP(&altLimit, "limit", "l", services.DefaultLimit, "Maximum alternatives to show")
}

func newSearchService(rt *appEnv) *services.SearchService {
	finder := services.NewAlternativeFinder(rt.db, rt.log, rt.layers(), rt.cfg.OnlineMinSimilarity)
	return services.NewSearchService(rt.db, rt.log, nil, rt.layers(), finder)
}

func runSearch(cmd *cobra.Command, args []string) error {
	term := strings.Join(args, " ")

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	results, err := newSearchService(rt).Search(cmd.Context(), services.SearchQuery{
		Term:   term,
		Type:   services.SearchType(searchType),
		Gender: searchGender,
		Limit:  searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if jsonOutput {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Printf("No results found for '%s'\n", term)
		return nil
	}

	fmt.Printf("\n%s '%s' (%d results)\n\n", titleStyle.Render("SEARCH:"), term, len(results))
	for _, p := range results {
		printPerfume(p)
	}
	return nil
}

func runAlternatives(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid perfume id %q", args[0])
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	svc := newSearchService(rt)
	target, err := svc.GetPerfume(cmd.Context(), id)
	if err != nil {
		return err
	}
	alts, err := svc.GetAlternatives(cmd.Context(), id, altLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(alts)
	}

	fmt.Printf("\n%s %s %s (%s)\n\n", titleStyle.Render("ALTERNATIVES:"),
		brandStyle.Render(target.Brand.Name), target.Name, formatPrice(target.Price, target.Currency))
	if len(alts) == 0 {
		fmt.Println("No alternatives found.")
		return nil
	}
	for _, a := range alts {
		fmt.Printf("%s %s %s  %s\n",
			scoreStyle.Render(fmt.Sprintf("%6.2f", a.SimilarityScore)),
			brandStyle.Render(a.Perfume.Brand.Name), a.Perfume.Name,
			dimStyle.Render(formatPrice(a.Perfume.Price, a.Perfume.Currency)))
		if len(a.CommonNotes) > 0 {
			fmt.Printf("       %s\n", dimStyle.Render("common: "+strings.Join(a.CommonNotes, ", ")))
		}
	}
	fmt.Println()
	return nil
}

func printPerfume(p services.Projection) {
	fmt.Printf("%s %s %s\n", idStyle.Render("["+p.ID.String()+"]"), brandStyle.Render(p.Brand.Name), p.Name)
	fmt.Printf("    %s • %s", p.Gender, formatPrice(p.Price, p.Currency))
	if p.Family != nil {
		fmt.Printf(" • %s", p.Family.Name)
	}
	fmt.Println()
	if names := p.Notes.Names(); len(names) > 0 {
		fmt.Printf("    %s\n", dimStyle.Render(strings.Join(names, ", ")))
	}
	fmt.Println()
}
