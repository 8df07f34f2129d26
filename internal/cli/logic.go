package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/cachestat/internal/cachestat"
	"github.com/idelchi/cachestat/internal/config"
	"github.com/idelchi/cachestat/internal/layout"
	"github.com/idelchi/cachestat/internal/logging"
)

// analyze runs every selected category. A category that fails is logged and
// left out of the result; cancellation of ctx aborts the whole analysis.
func analyze(
	ctx context.Context,
	categories []layout.Category,
	opt cachestat.Options,
	log logrus.FieldLogger,
	bar *progress,
) ([]*cachestat.Report, error) {
	reports := make([]*cachestat.Report, 0, len(categories))

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var hook cachestat.ProgressFunc
		if bar != nil {
			hook = bar.hook(category.Name())
		}

		report, err := cachestat.Run(ctx, category, opt, hook)

		if bar != nil {
			bar.done()
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			log.WithFields(logging.RootFields(category.Name(), category.Root())).
				WithError(err).
				Warn("skipping cache root")

			continue
		}

		reports = append(reports, report)
	}

	return reports, nil
}

func logic(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	log, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Debug:  cfg.Debug,
		Stderr: stderr,
	})
	if err != nil {
		return err
	}

	enableProgress := cfg.Output == "table" &&
		!cfg.Debug &&
		stderr == os.Stderr &&
		isatty.IsTerminal(os.Stderr.Fd())

	var bar *progress

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		bar = newProgress(stderr)
	}

	cacheLayout := layout.Resolve(cfg.Home)

	log.WithFields(logrus.Fields{
		"home":       cacheLayout.Home,
		"mode":       cfg.Mode,
		"top":        cfg.Top,
		"categories": cfg.Categories,
	}).Debug("analyzing cache")

	reports, err := analyze(ctx, cacheLayout.Select(cfg.Categories), cachestat.Options{
		TopN:   cfg.Top,
		Mode:   cfg.AggregationMode(),
		Jobs:   cfg.Jobs,
		Logger: log,
	}, log, bar)
	if err != nil {
		return fmt.Errorf("analyzing cache: %w", err)
	}

	switch cfg.Output {
	case "json":
		return PrintJSON(reports, stdout)
	case "yaml":
		return PrintYAML(reports, stdout)
	case "table":
		return PrintTable(reports, stdout)
	default:
		return fmt.Errorf("unknown output format: %s", cfg.Output)
	}
}
