package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/reelbase/reelbase-api/internal/client/apiclient"
)

func (a *App) watchlist(ctx context.Context, args []string) error {
	c, err := a.authed()
	if err != nil {
		return err
	}

	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	var entries []apiclient.WatchlistEntry
	switch sub {
	case "list":
		entries, err = c.Watchlist(ctx)
	case "add":
		fs := newFlagSet("watchlist add", a.Err)
		mediaType := fs.String("type", "movie", "movie or tv")
		id := fs.String("id", "", "media id")
		title := fs.String("title", "", "title")
		poster := fs.String("poster", "", "poster path")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || *title == "" {
			return errors.New("watchlist add: -id and -title are required")
		}
		entries, err = c.AddToWatchlist(ctx, *mediaType, *id, *title, *poster)
	case "remove":
		if len(args) != 1 || args[0] == "" {
			return errors.New("watchlist remove: media id argument is required")
		}
		entries, err = c.RemoveFromWatchlist(ctx, args[0])
	default:
		return fmt.Errorf("watchlist: unknown subcommand %q", sub)
	}
	if err != nil {
		return err
	}

	a.printWatchlist(entries)
	return nil
}

func (a *App) printWatchlist(entries []apiclient.WatchlistEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, "Your watchlist is empty")
		return
	}
	tw := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tTITLE\tADDED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.MediaType, e.MediaID, e.Title, e.AddedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}
