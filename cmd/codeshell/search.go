package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Cyclone1070/codeshell/internal/tool/search"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var opts search.Options
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <term> [project]",
		Short: "Search file contents across a project",
		Long: `Search every text file under the project (default: the working directory)
and print one line per match as path:line:column: content.

Files ignored by .gitignore, .ignore, .git/info/exclude and the global git
excludes are skipped unless --include-ignored is set.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var project string
			if len(args) == 2 {
				project = args[1]
			}
			projectPath, err := resolveProject(project)
			if err != nil {
				return err
			}

			results, err := a.newEngine().Search(cmd.Context(), projectPath, args[0], opts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printResults(cmd.OutOrStdout(), results)
			if results.TotalMatches == 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.CaseSensitive, "case-sensitive", "s", false, "Match case exactly")
	flags.BoolVarP(&opts.WholeWord, "word", "w", false, "Match whole words only")
	flags.BoolVarP(&opts.UseRegex, "regex", "r", false, "Treat term as a regular expression")
	flags.StringSliceVarP(&opts.ExcludePatterns, "exclude", "x", nil, "Skip paths containing this substring (repeatable)")
	flags.StringSliceVarP(&opts.IncludeGlobs, "glob", "g", nil, "Only search files matching this glob (repeatable)")
	flags.BoolVar(&opts.IncludeIgnored, "include-ignored", false, "Also search ignored files")
	flags.BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func printResults(w io.Writer, results *search.Results) {
	for _, file := range results.Matches {
		for _, m := range file.Matches {
			fmt.Fprintf(w, "%s:%d:%d: %s\n", file.FilePath, m.LineNumber, m.MatchIndex+1, m.LineContent)
		}
	}
}
