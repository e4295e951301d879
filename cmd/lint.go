package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gemtutor-ai/gemtutor/internal/lint"
)

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [path...]",
		Short: "Check files or trees for unresolved merge conflict markers",
		Long: "Scans text files for conflict markers left by a merge (<<<<<<<,\n" +
			"=======, >>>>>>>). Exits non-zero when any are found, which makes it\n" +
			"usable as a pre-commit or CI check.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runLint(args)
		},
	}
}

func runLint(roots []string) error {
	total := &lint.Result{}
	for _, root := range roots {
		res, err := lint.CheckTree(root)
		if err != nil {
			return err
		}
		total.Findings = append(total.Findings, res.Findings...)
		total.FilesChecked += res.FilesChecked
	}

	for _, f := range total.Findings {
		fmt.Println(f)
	}
	if !total.OK() {
		return fmt.Errorf("%d unresolved conflict marker(s) in %d file(s) checked", len(total.Findings), total.FilesChecked)
	}
	fmt.Printf("OK: %d file(s) checked, no conflict markers.\n", total.FilesChecked)
	return nil
}
