package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
	"github.com/SanteonNL/stringanalyzer/cmd/stringctl/client"
	"github.com/SanteonNL/stringanalyzer/util"
)

const defaultURL = "http://localhost:8000"

type rootOptions struct {
	url     string
	retries int
	verbose bool
}

func newRootCmd(out io.Writer, log zerolog.Logger) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "stringctl",
		Short:         "Command line client for the string analyzer service",
		SilenceUsage: true,
	}
	root.SetOut(out)

	baseURL := os.Getenv("STRINGANALYZER_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}
	root.PersistentFlags().StringVar(&opts.url, "url", baseURL, "base URL of the string analyzer (env STRINGANALYZER_URL)")
	root.PersistentFlags().IntVar(&opts.retries, "retries", 3, "number of retries for failed requests")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests")

	newClient := func() *client.StringAnalyzerClient {
		l := log
		if opts.verbose {
			l = l.Level(zerolog.DebugLevel)
		}
		return client.NewStringAnalyzerClient(opts.url, opts.retries, l)
	}

	root.AddCommand(
		newHealthCmd(newClient),
		newCreateCmd(newClient),
		newGetCmd(newClient),
		newDeleteCmd(newClient),
		newListCmd(newClient),
		newQueryCmd(newClient),
	)
	return root
}

type clientFactory func() *client.StringAnalyzerClient

func newHealthCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := newClient().Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newCreateCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "create <value>",
		Short: "Analyze and store a string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := newClient().Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
}

func newGetCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <value>",
		Short: "Show the stored analysis of a string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := newClient().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
}

func newDeleteCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <value>",
		Short: "Delete a stored string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", args[0])
			return nil
		},
	}
}

type pageFlags struct {
	skip  int
	limit int
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.skip, "skip", 0, "number of records to skip")
	cmd.Flags().IntVar(&p.limit, "limit", 0, "maximum number of records to return (server default when 0)")
}

func (p *pageFlags) page() types.Page {
	return types.Page{Skip: p.skip, Limit: p.limit}
}

func newListCmd(newClient clientFactory) *cobra.Command {
	var (
		page         pageFlags
		palindrome   bool
		minLength    int
		maxLength    int
		wordCount    int
		containsChar string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored strings with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filters types.FilterSet
			flags := cmd.Flags()
			if flags.Changed("palindrome") {
				filters.IsPalindrome = util.BoolPtr(palindrome)
			}
			if flags.Changed("min-length") {
				filters.MinLength = util.IntPtr(minLength)
			}
			if flags.Changed("max-length") {
				filters.MaxLength = util.IntPtr(maxLength)
			}
			if flags.Changed("word-count") {
				filters.WordCount = util.IntPtr(wordCount)
			}
			if flags.Changed("contains") {
				filters.ContainsCharacter = util.StringPtr(containsChar)
			}

			resp, err := newClient().List(cmd.Context(), filters, page.page())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	page.register(cmd)
	cmd.Flags().BoolVar(&palindrome, "palindrome", false, "only palindromes (or only non-palindromes with =false)")
	cmd.Flags().IntVar(&minLength, "min-length", 0, "minimum length")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "maximum length")
	cmd.Flags().IntVar(&wordCount, "word-count", 0, "exact word count")
	cmd.Flags().StringVar(&containsChar, "contains", "", "single character the string must contain")
	return cmd
}

func newQueryCmd(newClient clientFactory) *cobra.Command {
	var page pageFlags

	cmd := &cobra.Command{
		Use:     "query <natural language query>",
		Aliases: []string{"search"},
		Short:   "Filter stored strings with a natural-language query",
		Example: `  stringctl query "single word palindromic strings"
  stringctl query strings longer than 10 characters`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().FilterByNaturalLanguage(cmd.Context(), strings.Join(args, " "), page.page())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	page.register(cmd)
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

