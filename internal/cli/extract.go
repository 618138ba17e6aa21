// extract.go implements "pop extract": pull fenced code out of model output.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pop-sh/pop/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract fenced code blocks from text",
	Long: `Extract code from fenced blocks in a file or on stdin and print it to
stdout. With --lang only blocks tagged with that language (or one of its
aliases) match; untagged blocks match any filter. Text with no fenced
blocks at all is passed through unchanged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var (
	extractLangFlag  string
	extractAllFlag   bool
	extractStripFlag bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractLangFlag, "lang", "l", "", "Only extract blocks for this language")
	extractCmd.Flags().BoolVar(&extractAllFlag, "all", false, "Concatenate every matching block instead of the first")
	extractCmd.Flags().BoolVar(&extractStripFlag, "strip-comments", false, "Strip comments from the extracted code")
}

func runExtract(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		text = string(data)
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	// No fences anywhere: the input is already bare code (or prose); echo it.
	if len(extract.Blocks(text)) == 0 {
		fmt.Print(text)
		return nil
	}

	snippets := extract.Extract(text, extractLangFlag, extractAllFlag)
	if len(snippets) == 0 {
		return fmt.Errorf("no %s code blocks found", extractLangFlag)
	}

	code := extract.Concat(snippets)
	if extractStripFlag {
		lang := extractLangFlag
		if lang == "" {
			lang = snippets[0].Lang
		}
		code = extract.StripComments(code, lang)
	}

	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	fmt.Print(code)
	return nil
}
