package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/dshills/panekit/internal/clipboard"
	"github.com/dshills/panekit/internal/pane"
	"github.com/dshills/panekit/internal/pty"
	"github.com/dshills/panekit/internal/search"
)

var errNoMatches = errors.New("no matches")

func newSearchCmd(g *globalOptions) *cobra.Command {
	var (
		regex      bool
		ignoreCase bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search [flags] PATTERN [-- command [args...]]",
		Short: "Run a command in a pane and report where PATTERN appears",
		Long: "Run command (the configured shell by default) in a pane until its output\n" +
			"ends, then print each match as STARTROW:STARTCOL-ENDROW:ENDCOL using\n" +
			"stable rows and cell columns.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := search.Pattern{Kind: search.CaseSensitive, Text: args[0]}
			switch {
			case regex && ignoreCase:
				return errors.New("--regex and --ignore-case are exclusive; use (?i) in the expression")
			case regex:
				p.Kind = search.Regex
			case ignoreCase:
				p.Kind = search.CaseInsensitive
			}
			return runSearch(cmd.Context(), cmd.OutOrStdout(), g, p, args[1:], timeout)
		},
	}
	cmd.Flags().BoolVarP(&regex, "regex", "e", false, "Treat PATTERN as a regular expression")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Match PATTERN ignoring case")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Search whatever output arrived by this deadline")
	return cmd
}

func runSearch(ctx context.Context, out io.Writer, g *globalOptions, p search.Pattern, args []string, timeout time.Duration) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	log := g.logger(cfg)

	c, err := command(cfg, args)
	if err != nil {
		return err
	}
	sess, err := pane.Spawn(c, pane.SpawnOptions{
		Size:       pty.Size{Rows: uint16(cfg.Rows), Cols: uint16(cfg.Cols)},
		Scrollback: cfg.Scrollback,
		Clipboard:  clipboard.NewMemory(),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	reader, err := sess.Reader()
	if err != nil {
		return err
	}
	output := make(chan []byte, 16)
	var wg conc.WaitGroup
	wg.Go(func() {
		defer close(output)
		if err := pane.ReadOutput(reader, output); err != nil {
			log.WithError(err).Debug("output reader stopped")
		}
	})
	defer func() {
		reader.Close()
		for range output {
		}
		wg.Wait()
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

collect:
	for {
		select {
		case chunk, ok := <-output:
			if !ok {
				break collect
			}
			sess.Feed(chunk)
		case <-ctx.Done():
			log.WithField("timeout", timeout).Warn("output still open, searching what arrived")
			break collect
		}
	}

	results, err := sess.Search(context.Background(), p)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(out, "%d:%d-%d:%d\n", r.StartY, r.StartX, r.EndY, r.EndX)
	}
	if len(results) == 0 {
		return errNoMatches
	}
	return nil
}
