package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"cowriter/services"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var descriptionFile string

var chatCmd = &cobra.Command{
	Use:   "chat [description]",
	Short: "Co-write an essay in the terminal",
	Long: `Starts a co-writing session in the terminal.

The scholarship description is taken from the arguments, from --file, or read
from stdin up to the first empty line. Answer each question to extend the essay.

Commands:
  /essay  print the essay so far
  /copy   copy the essay to the clipboard
  /quit   end the session`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&descriptionFile, "file", "f", "", "Read the scholarship description from a file")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	description, err := readDescription(in, out, args)
	if err != nil {
		return err
	}

	provider, _ := newProvider()
	sess := services.NewSession(provider, sessionOptions())
	term := &terminal{out: out, copy: clipboard.WriteAll}

	return term.run(ctx, sess, description, in)
}

func readDescription(in *bufio.Scanner, out io.Writer, args []string) (string, error) {
	if descriptionFile != "" {
		data, err := os.ReadFile(descriptionFile)
		if err != nil {
			return "", fmt.Errorf("failed to read description: %w", err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	fmt.Fprintln(out, "Paste the scholarship description, then an empty line:")
	var lines []string
	for in.Scan() {
		line := in.Text()
		if strings.TrimSpace(line) == "" && len(lines) > 0 {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), in.Err()
}

// terminal renders a session on a plain text stream.
type terminal struct {
	out  io.Writer
	copy func(string) error
}

func (t *terminal) callbacks() services.CycleCallbacks {
	return services.CycleCallbacks{
		OnAnalysis: func(step services.RevealStep) { fmt.Fprint(t.out, step.Piece) },
		OnReveal:   func(step services.RevealStep) { fmt.Fprint(t.out, step.Piece) },
		OnQuestion: func(q string) { fmt.Fprintf(t.out, "\n\n? %s\n", q) },
		OnNotice:   func(n services.Notice) { fmt.Fprintf(t.out, "\n! %s\n", n.Message) },
	}
}

func (t *terminal) run(ctx context.Context, sess *services.Session, description string, in *bufio.Scanner) error {
	if err := sess.Start(ctx, description, t.callbacks()); err != nil {
		return err
	}

	for {
		fmt.Fprint(t.out, "> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())

		switch line {
		case "/quit":
			return nil
		case "/essay":
			fmt.Fprintf(t.out, "\n%s\n\n", sess.Essay())
			continue
		case "/copy":
			t.copyEssay(sess.Essay())
			continue
		}

		if line == "" {
			continue
		}
		fmt.Fprintln(t.out)
		if err := sess.Submit(ctx, line, t.callbacks()); err != nil && !errors.Is(err, services.ErrEmptyAnswer) {
			fmt.Fprintf(t.out, "! %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (t *terminal) copyEssay(essay string) {
	if err := t.copy(essay); err != nil {
		n, _ := services.NoticeFor(&services.ClipboardError{Err: err})
		fmt.Fprintf(t.out, "! %s\n", n.Message)
		return
	}
	fmt.Fprintln(t.out, "Essay copied to clipboard")
}
