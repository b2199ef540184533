// Package chatcmder provides the chat command for talking to a running
// larder server from the terminal.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/larder/pkg/cliui"
	"github.com/papercomputeco/larder/pkg/client"
	"github.com/papercomputeco/larder/pkg/config"
	"github.com/papercomputeco/larder/pkg/llm"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("larder> ")
)

type chatCommander struct {
	apiTarget string
	raw       bool

	in     io.Reader
	out    io.Writer
	client *client.Client
}

const chatLongDesc string = `Start an interactive chat session with a running larder server.

Replies are rendered as markdown. The conversation lives on the server and
is shared by every client.

Commands:
  /history   Show the recent conversation
  /usage     Show provider usage counters
  /clear     Clear the conversation
  /exit      Quit (or Ctrl+D)

Examples:
  larder chat
  larder chat --api-target http://localhost:8080`

const chatShortDesc string = "Chat with a running larder server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed(config.FlagAPITarget) {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.client = client.New(cmder.apiTarget)

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print replies without markdown rendering")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Server:"), cliui.NameStyle.Render(c.apiTarget))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Ask about recipes, substitutions or storage. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		if err := c.handle(ctx, input); err != nil {
			fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) handle(ctx context.Context, input string) error {
	switch input {
	case "/clear":
		msg, err := c.client.ClearConversation(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark, msg)
		return nil

	case "/usage":
		snap, err := c.client.Usage(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "\n  %s\n", cliui.HeaderStyle.Render("Provider usage"))
		cliui.RenderUsage(c.out, snap)
		fmt.Fprintln(c.out)
		return nil

	case "/history":
		history, err := c.client.History(ctx)
		if err != nil {
			return err
		}
		c.printHistory(history)
		return nil
	}

	if strings.HasPrefix(input, "/") {
		return fmt.Errorf("unknown command %q", input)
	}

	resp, err := c.client.Chat(ctx, input)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return err
	}

	fmt.Fprint(c.out, assistantPrompt)
	fmt.Fprintln(c.out, c.render(resp.Response))
	return nil
}

func (c *chatCommander) printHistory(history []llm.Message) {
	if len(history) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No messages yet."))
		return
	}

	fmt.Fprintln(c.out)
	for _, m := range history {
		fmt.Fprintf(c.out, "  %s %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%-9s", string(m.Role)+":")),
			m.Content,
		)
	}
	fmt.Fprintln(c.out)
}

func (c *chatCommander) render(reply string) string {
	if c.raw || !isTerminal(c.out) {
		return reply
	}

	rendered, err := cliui.RenderMarkdown(reply)
	if err != nil {
		return reply
	}
	return strings.TrimRight(rendered, "\n")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
