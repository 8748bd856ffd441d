package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"certo/internal/kb"
	"certo/internal/spec"
)

var kbDir string

// kbCmd represents the kb command
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge base behind fact checks",
	Long: `The knowledge base is a flat store of dotted keys (e.g. "go.version")
in .certo/facts.json. Fact checks read it; 'certo kb update' rebuilds
it from the project.`,
}

var kbUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-scan the project and rebuild the fact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, projectRoot, err := spec.Find(kbDir)
		if err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}

		store, err := kb.Update(projectRoot, spec.Dir(projectRoot))
		if err != nil {
			return err
		}

		fmt.Printf("updated %d facts\n", store.Len())
		return nil
	},
}

var kbShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current facts",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, projectRoot, err := spec.Find(kbDir)
		if err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}

		store, err := kb.Load(spec.Dir(projectRoot))
		if err != nil {
			return err
		}

		if store.Len() == 0 {
			fmt.Fprintln(os.Stderr, "no facts; run 'certo kb update' first")
			return nil
		}

		if verbose && !store.UpdatedAt().IsZero() {
			fmt.Fprintf(os.Stderr, "updated: %s\n", store.UpdatedAt().Format("2006-01-02 15:04:05 MST"))
		}
		for _, key := range store.Keys() {
			value, _ := store.Lookup(key)
			fmt.Printf("%s=%s\n", key, value)
		}
		return nil
	},
}

func init() {
	kbCmd.PersistentFlags().StringVarP(&kbDir, "dir", "C", ".", "start directory for the document search")
	kbCmd.AddCommand(kbUpdateCmd)
	kbCmd.AddCommand(kbShowCmd)
	rootCmd.AddCommand(kbCmd)
}
