package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

// queryArg склеивает позиционные аргументы в один запрос.
func queryArg(c *cli.Context, name string) (string, error) {
	q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if q == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return q, nil
}

func searchCommand(c *cli.Context) error {
	query, err := queryArg(c, "query")
	if err != nil {
		return err
	}
	comps, err := setup(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	resp, err := comps.Search.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, resp)
	}
	printSearch(c.App.Writer, resp)
	return nil
}

func suggestCommand(c *cli.Context) error {
	partial, err := queryArg(c, "partial query")
	if err != nil {
		return err
	}
	comps, err := setup(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	resp, err := comps.Search.Suggest(c.Context, partial)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, resp)
	}
	printSuggest(c.App.Writer, resp)
	return nil
}

func placeCommand(c *cli.Context) error {
	key, err := queryArg(c, "place key")
	if err != nil {
		return err
	}
	comps, err := setup(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	rec, err := comps.Search.PlaceDetails(key)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, rec)
	}
	printPlace(c.App.Writer, rec)
	return nil
}

func reverseCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: trafficctl reverse <lat> <lng>")
	}
	lat, errLat := strconv.ParseFloat(c.Args().Get(0), 64)
	lng, errLng := strconv.ParseFloat(c.Args().Get(1), 64)
	if errLat != nil || errLng != nil {
		return fmt.Errorf("latitude and longitude must be numbers")
	}

	comps, err := setup(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	hit, err := comps.Search.Reverse(c.Context, lat, lng)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, hit)
	}
	fmt.Fprintf(c.App.Writer, "%s\n%.6f, %.6f\n", hit.FormattedAddress, hit.Lat, hit.Lng)
	return nil
}

func pingCommand(c *cli.Context) error {
	comps, err := setup(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	res, err := comps.Search.Ping(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: OK, %d hits for %q in %d ms\n", res.Provider, res.Hits, res.Query, res.LatencyMs)
	return nil
}

func historyCommand(c *cli.Context) error {
	comps, err := setup(c)
	if err != nil {
		return err
	}
	defer comps.Close()

	items, err := comps.Store.RecentSearches(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, items)
	}
	printHistory(c.App.Writer, items)
	return nil
}
