package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/socratic-dialogue/internal/app/conversation"
	"github.com/PabloGalante/socratic-dialogue/internal/app/export"
	"github.com/PabloGalante/socratic-dialogue/internal/app/session"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

const chatHelp = `Commands:
  /reflect ANSWER        answer the pending reflection question
  /end                   finish the dialogue and get the analysis
  /export [FORMAT] [FILE] export the session (text, markdown, json, yaml)
  /reset                 start over with the same material
  /quit                  leave`

func newChatCmd() *cobra.Command {
	var sourcePath, focus string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run a dialogue session in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			c := &chat{
				out:   cmd.OutOrStdout(),
				in:    bufio.NewScanner(cmd.InOrStdin()),
				doc:   &conversation.Document{Filename: filepath.Base(sourcePath), Data: data},
				focus: focus,
			}
			return c.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&sourcePath, "source", "s", "", "file holding the source material")
	cmd.Flags().StringVarP(&focus, "focus", "f", "", "the question guiding the session")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("focus")
	return cmd
}

type chat struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Scanner

	svc   *conversation.Service
	id    domain.SessionID
	doc   *conversation.Document
	focus string
}

func (c *chat) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *chat) onEvent(evt session.Event) {
	switch evt.Kind {
	case session.EventReflectionRequested:
		c.printf("\n[Reflection] %s\n(answer with /reflect ANSWER)\n", evt.Prompt)
	case session.EventReadyToEnd:
		c.printf("\n[Partner] We have covered a lot of ground. Type /end when you are ready to wrap up.\n")
	}
}

func (c *chat) run(ctx context.Context) error {
	a, err := buildApp(ctx, cfg, c.onEvent)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	c.svc = a.svc

	if err := c.start(ctx, ""); err != nil {
		return err
	}
	c.printf("%s\n\n", chatHelp)

	for {
		line, ok := c.prompt("> ")
		if !ok {
			return c.in.Err()
		}
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/help":
			c.printf("%s\n", chatHelp)
		case "/reflect":
			err = c.reflect(ctx, strings.TrimSpace(arg))
		case "/end":
			err = c.end(ctx)
		case "/export":
			err = c.export(ctx, strings.Fields(arg))
		case "/reset":
			err = c.reset(ctx)
		default:
			err = c.send(ctx, line)
		}
		if err != nil {
			c.printf("! %v\n", err)
		}
	}
}

func (c *chat) prompt(p string) (string, bool) {
	c.printf("%s", p)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *chat) start(ctx context.Context, id domain.SessionID) error {
	out, err := c.svc.StartSession(ctx, conversation.StartSessionInput{
		SessionID:     id,
		Document:      c.doc,
		FocusQuestion: c.focus,
	})
	if err != nil {
		return err
	}
	c.id = out.Session.ID
	c.printf("Focus: %s\n\n", out.Session.FocusQuestion)
	c.printTurn(out.Turn)
	return nil
}

func (c *chat) send(ctx context.Context, text string) error {
	out, err := c.svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: c.id, Text: text})
	if err != nil {
		return err
	}
	if !out.Turn.Accepted {
		c.printf("(not sent: the session is not accepting messages right now)\n")
		return nil
	}
	c.printTurn(out.Turn)
	return nil
}

func (c *chat) printTurn(t session.TurnResult) {
	if t.Reply != nil {
		c.printf("\n[Partner] %s\n\n", t.Reply.Content)
	}
}

func (c *chat) reflect(ctx context.Context, answer string) error {
	snap, err := c.svc.GetSession(ctx, c.id)
	if err != nil {
		return err
	}
	if snap.PendingReflection == "" {
		c.printf("No reflection question is waiting.\n")
		return nil
	}
	_, err = c.svc.RecordReflection(ctx, conversation.RecordReflectionInput{
		SessionID: c.id,
		Prompt:    snap.PendingReflection,
		Response:  answer,
	})
	if err == nil {
		c.printf("Reflection saved.\n")
	}
	return err
}

func (c *chat) end(ctx context.Context) error {
	snap, err := c.svc.LockSession(ctx, c.id)
	if err != nil {
		return err
	}
	c.printf("\nDialogue closed after %d exchanges.\n", snap.ExchangeCount)

	c.printf("%s\n", session.EndContentPrompt)
	content, ok := c.prompt("> ")
	if !ok {
		return c.in.Err()
	}
	c.printf("%s\n", session.EndProcessPrompt)
	process, ok := c.prompt("> ")
	if !ok {
		return c.in.Err()
	}

	c.printf("\nAnalyzing the session...\n")
	snap, err = c.svc.SubmitEndReflection(ctx, conversation.SubmitEndReflectionInput{
		SessionID:     c.id,
		ContentAnswer: content,
		ProcessAnswer: process,
	})
	if err != nil {
		return err
	}

	if h := snap.Analysis.Header; h != nil {
		c.printf("\n%s\n%s\n", h.Title, h.Subtitle)
	}
	for _, s := range snap.Analysis.DisplaySections() {
		if s.Title != "" {
			c.printf("\n== %s ==\n", s.Title)
		}
		c.printf("%s\n", s.Body)
	}
	c.printf("\nUse /export to save the report or /reset to go again.\n")
	return nil
}

func (c *chat) export(ctx context.Context, args []string) error {
	var format, path string
	if len(args) > 0 {
		format = args[0]
	}
	if len(args) > 1 {
		path = args[1]
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	out, err := c.svc.ExportSession(ctx, conversation.ExportSessionInput{SessionID: c.id, Format: f})
	if err != nil {
		return err
	}

	if path == "" {
		c.printf("%s\n", out.Data)
		return nil
	}
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	c.printf("Report %s written to %s\n", out.Report.ID, path)
	return nil
}

func (c *chat) reset(ctx context.Context) error {
	if _, err := c.svc.ResetSession(ctx, c.id); err != nil {
		return err
	}
	c.printf("Session reset.\n\n")
	return c.start(ctx, c.id)
}
