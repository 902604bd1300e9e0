package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// cliApprover prompts on stdin/stderr for each untrusted import/URL
// fetch (spec §4.4 step 5, §4.6 step "approval gate"). AutoApprove
// mirrors `import.approveAll` (spec §6.2) for non-interactive runs.
type cliApprover struct {
	AutoApprove bool
	in          *bufio.Reader
}

func newCLIApprover(autoApprove bool) *cliApprover {
	return &cliApprover{AutoApprove: autoApprove, in: bufio.NewReader(os.Stdin)}
}

func (a *cliApprover) Approve(ctx context.Context, url string, content []byte) (bool, error) {
	if a.AutoApprove {
		return true, nil
	}
	fmt.Fprintf(os.Stderr, "meld: approve fetch of %s (%d bytes)? [y/N] ", url, len(content))
	line, err := a.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes", nil
}
