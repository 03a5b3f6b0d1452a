package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harun/agencycode/pkg/agency"
	"github.com/rs/zerolog"
)

// terminal is the interactive read-send-print loop of the run command
type terminal struct {
	in            io.Reader
	out           io.Writer
	agency        *agency.Agency
	showReasoning bool
	logger        zerolog.Logger
}

func (t *terminal) run(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintf(t.out, "%s ready. Type /exit to quit.\n", t.agency.Name())

	for {
		fmt.Fprintf(t.out, "\n[%s] > ", t.agency.Active())
		if !scanner.Scan() {
			fmt.Fprintln(t.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			t.agency.Reset()
			fmt.Fprintln(t.out, "Conversation cleared.")
			continue
		}

		result, err := t.agency.Send(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			t.logger.Error().Err(err).Msg("Request failed")
			fmt.Fprintf(t.out, "Error: %v\n", err)
			continue
		}

		if t.showReasoning && result.Reasoning != "" {
			fmt.Fprintf(t.out, "\n(reasoning) %s\n", result.Reasoning)
		}
		fmt.Fprintf(t.out, "\n%s: %s\n", result.Agent, result.Output)
	}
}
