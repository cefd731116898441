package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"anukritich/nivaran/pkg/config"
	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directions"
	"anukritich/nivaran/pkg/geoloc"
	"anukritich/nivaran/pkg/server/rest/service"
	"anukritich/nivaran/pkg/tracker"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the config file")
	originFlag = flag.String("origin", "12.971600,77.594600", "replay start as lat,lon")
	destFlag   = flag.String("dest", "12.935200,77.624500", "case location as lat,lon")
)

// replays a fetched route back through a tracking session, feeding every
// route point as a position sample the way a device stream would.
func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	origin, err := parseCoord(*originFlag)
	if err != nil {
		log.Fatal(err)
	}
	dest, err := parseCoord(*destFlag)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := directions.NewClient(cfg.Directions.BaseURL, cfg.Directions.APIKey, cfg.Directions.TrafficModel)
	if err != nil {
		log.Fatal(err)
	}

	route, err := provider.Route(context.Background(), origin, dest)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("fetched route: %s / %s, %d points\n",
		route.Summary.DistanceText, route.Summary.DurationText, len(route.Path))

	interval := time.Duration(cfg.Replay.IntervalSeconds) * time.Second
	replay := geoloc.NewReplayProvider(route.Path, interval)

	surface := service.NewRenderLog()
	tr, err := tracker.New(tracker.Config{
		CaseID:      "replay",
		Destination: &dest,
		Origin:      &origin,
		Directions:  provider,
		Geoloc:      replay,
		Surface:     surface,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer tr.Close()

	bar := progressbar.NewOptions(len(route.Path),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]replaying route...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	w, err := replay.WatchPosition(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	defer w.Stop()

	lastSummary := ""
	for pos := range w.Samples {
		tr.SubmitPosition(pos.Coord, pos.At)
		bar.Add(1)

		snap := tr.Snapshot()
		if snap.Summary != nil && snap.Summary.DistanceText != lastSummary {
			lastSummary = snap.Summary.DistanceText
			fmt.Printf("\nremaining: %s / %s\n", snap.Summary.DistanceText, snap.Summary.DurationText)
		}
	}

	snap := tr.Snapshot()
	fmt.Printf("\nreplay done, state=%s hasRoute=%v\n", snap.State, snap.HasRoute)
}

func parseCoord(s string) (datastructure.Coordinate, error) {
	var lat, lon float64
	if _, err := fmt.Sscanf(s, "%f,%f", &lat, &lon); err != nil {
		return datastructure.Coordinate{}, fmt.Errorf("bad coordinate %q: %w", s, err)
	}
	return datastructure.NewCoordinate(lat, lon), nil
}
