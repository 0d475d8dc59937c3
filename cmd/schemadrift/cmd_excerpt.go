package main

import (
	"github.com/spf13/cobra"

	"schemadrift/internal/excerpt"
)

var excerptCmd = &cobra.Command{
	Use:   "excerpt",
	Short: "Show the schema-only excerpt of the mutated patch",
	Long: `Prints the bounded, schema-level excerpt that would be handed to the
repair oracle. Function-record content is never included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab, err := loadVocabulary()
		if err != nil {
			return err
		}
		env, err := loadEnvelope(mutatedFile)
		if err != nil {
			return err
		}
		return printJSON(excerpt.Extract(env.Patch, vocab))
	},
}
