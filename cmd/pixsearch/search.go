package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pixsearch/internal/domain"
	logpkg "github.com/kailas-cloud/pixsearch/internal/logger"
	"github.com/kailas-cloud/pixsearch/internal/transport/console"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search images and print the results",
		Example: `  pixsearch search cats
  pixsearch search "yellow flowers" --pages 3 --format markdown > flowers.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntP("pages", "p", 1, "Number of result pages to load")
	cmd.Flags().StringP("format", "f", string(console.FormatText), "Output format: text or markdown")
	cmd.Flags().String("log-level", "", "Log level written to stderr (default: warn)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	pages, err := cmd.Flags().GetInt("pages")
	if err != nil {
		return err
	}
	if pages < 1 {
		return fmt.Errorf("--pages must be >= 1, got %d", pages)
	}
	formatFlag, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := console.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewCLILogger(level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	client := newPixabayClient(cfg.Pixabay, logger)
	sess := sessionuc.New(client, gallery.NewRenderer(cfg.Pixabay.PageSize))

	return searchPages(ctx, sess, strings.Join(args, " "), pages,
		console.NewPrinter(cmd.OutOrStdout(), format))
}

// searchPages submits term, loads up to pages pages and prints what is visible.
// The view is printed even when a fetch fails, so earlier pages are not lost.
func searchPages(ctx context.Context, sess *sessionuc.Session, term string, pages int, p *console.Printer) error {
	err := sess.Submit(ctx, term)
	for loaded := 1; err == nil && loaded < pages && sess.State().Gallery.Affordance.Active(); loaded++ {
		err = sess.LoadMore(ctx)
	}

	st := sess.State()
	if perr := p.Print(st, sess.DrainNotices()); perr != nil && !errors.Is(perr, io.ErrClosedPipe) {
		return fmt.Errorf("print results: %w", perr)
	}

	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return fmt.Errorf("invalid search: %w", err)
		}
		return fmt.Errorf("search %q: %w", term, err)
	}
	return nil
}
