package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/browser"
	"github.com/chrisuehlinger/vibedom/config"
	"github.com/chrisuehlinger/vibedom/dom"
	"github.com/chrisuehlinger/vibedom/observability"
)

type outputOptions struct {
	query string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.query, "query", "q", "", "print only the elements matching this selector")
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Load a local HTML file, run its scripts to idle and print the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
			return loadAndPrint(cmd, cfg, u.String(), out)
		},
	}
	out.register(cmd)
	return cmd
}

func newLoadCmd(cfg *config.Config) *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "load <url>",
		Short: "Fetch a page, run its scripts to idle and print the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return loadAndPrint(cmd, cfg, args[0], out)
		},
	}
	out.register(cmd)
	return cmd
}

// loadAndPrint builds a window for rawURL, drives its loop until it is idle
// or runtime.run_timeout passes, and writes the serialized result.
func loadAndPrint(cmd *cobra.Command, cfg *config.Config, rawURL string, out outputOptions) error {
	logger := observability.GetLogger()
	opts := browser.FromConfig(*cfg)
	opts.Logger = logger

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := browser.Load(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("close window", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.RunTimeout)
	defer cancel()
	if err := w.Run(runCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("run %s: %w", rawURL, err)
		}
		logger.Warn("event loop still busy, printing current document",
			zap.String("url", rawURL),
			zap.Duration("run_timeout", cfg.Runtime.RunTimeout))
	}
	return printDocument(cmd.OutOrStdout(), w.Document(), out.query)
}

func printDocument(wr io.Writer, doc *dom.Document, query string) error {
	if query != "" {
		els, err := doc.QuerySelectorAll(query)
		if err != nil {
			return err
		}
		for _, el := range els {
			if _, err := fmt.Fprintln(wr, el.OuterHTML()); err != nil {
				return err
			}
		}
		return nil
	}
	if dt := doc.Doctype(); dt != "" {
		if _, err := fmt.Fprintf(wr, "<!DOCTYPE %s>\n", dt); err != nil {
			return err
		}
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil
	}
	_, err := fmt.Fprintln(wr, root.OuterHTML())
	return err
}
