package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hong9883/ai-drug-approval-test/internal/chat"
	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the registered documents",
		Long: `Send one question to the backend and print the answer with its sources.

Prompt types: BASIC, STRUCTURED, SIMPLE, DETAILED, POINT, FACT_CHECK, STEP_BY_STEP

Examples:
  reviewdesk ask "이 의약품의 주요 부작용은?"
  reviewdesk ask --prompt FACT_CHECK "임상 3상 결과가 유의미했나요?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := models.ParsePromptStrategy(strings.ToUpper(strings.TrimSpace(prompt)))
			if err != nil {
				return err
			}
			return runAsk(cmd, opts, strings.Join(args, " "), strategy)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", string(models.PromptBasic), "Prompt type")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *rootOptions, question string, strategy models.PromptStrategy) error {
	e, err := opts.setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	notify, changed := changeSignal()
	session := chat.NewSession(chat.Options{
		Asker:    e.client,
		User:     e.cfg.CurrentUser(),
		Logger:   e.logger.Logger,
		OnChange: notify,
	})
	defer session.Close()

	session.SelectStrategy(strategy)
	if !session.Submit(question) {
		return errors.New("question must not be blank")
	}
	if err := waitUntil(cmd.Context(), changed, func() bool { return !session.Snapshot().Pending }); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	msgs := session.Snapshot().Messages
	reply := msgs[len(msgs)-1]

	fmt.Fprintf(out, "💬 [%s] %s\n\n", strategy.Label(), question)
	fmt.Fprintln(out, reply.Text)
	if len(reply.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "📄 참고 문서:")
		for _, src := range reply.Sources {
			fmt.Fprintf(out, "  • %s (p.%d, 유사도 %.2f)\n", src.FileName, src.PageNumber, src.Similarity)
		}
	}
	if reply.ResponseTime > 0 {
		fmt.Fprintf(out, "\n⏱  %.1fs\n", reply.ResponseTime.Seconds())
	}

	if err := session.LastErr(); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}

// changeSignal adapts a component's OnChange into a channel that holds at
// most one pending wake-up.
func changeSignal() (func(), <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}

// waitUntil blocks until done reports true, re-checking after every change.
func waitUntil(ctx context.Context, changed <-chan struct{}, done func() bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for !done() {
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
