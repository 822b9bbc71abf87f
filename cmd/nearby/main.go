// Command nearby prints the event list as the map would arrange it for a
// given position, straight from a seed catalog.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/okian/ecomap/internal/adapters/repository"
	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/proximity"
	"github.com/okian/ecomap/internal/domain/selection"
	"github.com/okian/ecomap/internal/domain/types"
)

const defaultRadiusKm = 50

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "nearby:", err)
		}
		os.Exit(2)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("nearby", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		lat      = fs.String("lat", "", "Latitude of the caller; empty for unknown")
		lon      = fs.String("lon", "", "Longitude of the caller; empty for unknown")
		radius   = fs.Float64("radius", defaultRadiusKm, "Radius in km around the caller")
		category = fs.String("category", proximity.CategoryAll, "Event type to keep, or all")
		seedFile = fs.String("seed", "", "YAML seed file; empty uses the built-in events")
		taps     = fs.String("select", "", "Comma-separated event ids tapped in order; tapping the highlighted id again clears it")
		asJSON   = fs.Bool("json", false, "Print the API response body instead of a table")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	origin, err := parseOrigin(*lat, *lon)
	if err != nil {
		return err
	}

	selected, err := replayTaps(*taps)
	if err != nil {
		return err
	}

	seed := repository.DefaultSeed()
	if *seedFile != "" {
		if seed, err = repository.LoadSeed(*seedFile); err != nil {
			return err
		}
	}
	for i := range seed.Events {
		if err := seed.Events[i].Validate(); err != nil {
			return err
		}
	}

	arrangement, err := proximity.Arrange(seed.Events, origin,
		proximity.WithRadius(*radius),
		proximity.WithCategory(*category),
	)
	if err != nil {
		return err
	}
	list := types.NewEventList(arrangement)

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	return printTable(stdout, list, selected)
}

func parseOrigin(lat, lon string) (*geo.Coordinate, error) {
	switch {
	case lat == "" && lon == "":
		return nil, nil
	case lat == "" || lon == "":
		return nil, errors.New("-lat and -lon must be given together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("-lat: %w", err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("-lon: %w", err)
	}
	c := geo.Coordinate{Latitude: la, Longitude: lo}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// replayTaps applies marker taps to a fresh controller and returns where it ends.
func replayTaps(taps string) (selection.State, error) {
	c := selection.NewController()
	if taps == "" {
		return c.Current(), nil
	}
	for _, id := range strings.Split(taps, ",") {
		if _, err := c.Toggle(strings.TrimSpace(id)); err != nil {
			return selection.None, fmt.Errorf("-select: %w", err)
		}
	}
	return c.Current(), nil
}

func printTable(w io.Writer, list types.EventList, selected selection.State) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSPOTS\tREWARD\tDISTANCE\tLOCATION")
	for _, e := range list.Events {
		distance := "-"
		if e.DistanceKm != nil {
			distance = e.DistanceLabel
		}
		id := e.ID
		if selected.IsSelected(e.ID) {
			id = "*" + id
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			id, e.Title, e.Type, e.SpotsLeft, e.Reward, distance, e.Location.Name)
	}
	return tw.Flush()
}
