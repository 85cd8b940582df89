// Package repl is the interactive question loop of the rag command.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"kgrag/pkg/logger"
	"kgrag/pkg/query"
)

const (
	Prompt  = "Ask me a question: "
	ExitCmd = "exit"
)

// Run reads questions from in until "exit", EOF or ctx is done and writes
// each answer to out. A failing question is reported and the loop goes on.
func Run(ctx context.Context, in io.Reader, out io.Writer, client query.GraphQueryClient) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		// only the literal line ends the session; " exit " is a question
		question := strings.TrimRight(scanner.Text(), "\r")
		if question == ExitCmd {
			return nil
		}
		if strings.TrimSpace(question) == "" {
			continue
		}

		res, err := client.Answer(ctx, question)
		if err != nil {
			logger.Error("Failed to answer question", "question", question, "err", err)
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		fmt.Fprintln(out, Render(res))
	}
}

// Render returns the model's answer, or the raw rows when there is none.
func Render(res query.Result) string {
	if res.Answer != "" {
		return res.Answer
	}
	raw, err := json.MarshalIndent(res.Records, "", "  ")
	if err != nil {
		return fmt.Sprint(res.Records)
	}
	return string(raw)
}
