package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errNotInteractive is returned when confirmation is needed but stdin is not
// a terminal.
var errNotInteractive = errors.New("stdin is not a terminal, use --force to skip confirmation")

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question on the command's input.
func (e *env) confirm(cmd *cobra.Command, question string) (bool, error) {
	if !e.isTerminal() {
		return false, errNotInteractive
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n\nContinue? [y/N]: ", question)

	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
