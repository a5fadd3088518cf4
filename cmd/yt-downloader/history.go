package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/ytget/yt-langdl/internal/history"
	"github.com/ytget/yt-langdl/internal/model"
)

// historyReader is the read side of history.Store
type historyReader interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
	FindByURL(ctx context.Context, url string) ([]history.Record, error)
	Stats(ctx context.Context) (history.Stats, error)
}

// printHistory lists the records of url, or the newest limit records when url
// is empty, followed by totals over the whole store.
func printHistory(ctx context.Context, out io.Writer, store historyReader, url string, limit int) error {
	var (
		records []history.Record
		err     error
	)
	if url != "" {
		records, err = store.FindByURL(ctx, url)
	} else {
		records, err = store.Recent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "no downloads recorded")
	}
	for _, rec := range records {
		printRecord(out, rec)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	color.New(color.Bold).Fprintf(out, "%d recorded, %d completed, %d failed, %d fell back to progressive\n",
		stats.Total, stats.Completed, stats.Failed, stats.FellBack)
	return nil
}

func printRecord(out io.Writer, rec history.Record) {
	status := color.New(color.FgGreen)
	if rec.Status != model.TaskStatusCompleted.String() {
		status = color.New(color.FgRed)
	}

	status.Fprintf(out, "%-9s", rec.Status)
	fmt.Fprintf(out, " %s  %s [%s]", humanize.Time(rec.FinishedAt), rec.Title, rec.Strategy)
	if rec.FellBack {
		fmt.Fprint(out, " (fell back)")
	}
	fmt.Fprintln(out)

	switch {
	case rec.LastError != "":
		fmt.Fprintf(out, "          %s\n", rec.LastError)
	case rec.OutputPath != "":
		fmt.Fprintf(out, "          %s\n", rec.OutputPath)
	}
}
