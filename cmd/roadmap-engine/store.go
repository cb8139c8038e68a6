package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/roadmap-engine/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local publication store",
	Long: `Store manages the SQLite publication cache used by the store source and
filled by remote sources running with --write-through.`,
}

var storeImportCmd = &cobra.Command{
	Use:   "import <dataset>",
	Short: "Import publications from a JSON or YAML dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(storeConfig().Path)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d publications from %s\n", n, args[0])
		return nil
	},
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print publication and link counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := storeConfig().Path
		st, err := store.Open(path)
		if err != nil {
			return err
		}
		defer st.Close()

		s, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Store:        %s\n", path)
		fmt.Printf("Publications: %d\n", s.Publications)
		fmt.Printf("Links:        %d\n", s.Links)
		if s.Publications > 0 {
			fmt.Printf("Years:        %d-%d\n", s.MinYear, s.MaxYear)
		}
		return nil
	},
}

var storeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find publications whose title matches the query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("max-results")

		st, err := store.Open(storeConfig().Path)
		if err != nil {
			return err
		}
		defer st.Close()

		pubs, err := st.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		if len(pubs) == 0 {
			fmt.Println("No matching publications.")
			return nil
		}
		for _, p := range pubs {
			fmt.Printf("%s\t%d\t%s\n", p.ID, p.Year, p.Title)
		}
		return nil
	},
}

func init() {
	storeSearchCmd.Flags().Int("max-results", 20, "maximum number of results")

	storeCmd.AddCommand(storeImportCmd, storeStatsCmd, storeSearchCmd)
	rootCmd.AddCommand(storeCmd)
}
