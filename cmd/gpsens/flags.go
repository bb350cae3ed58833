package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/gpsens/internal/config"
)

// parsePairs reads "all" or a comma separated list of a:b input pairs.
func parsePairs(s string) (config.Pairs, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return config.Pairs{All: true}, nil
	}
	sets, err := parseSets(s)
	if err != nil {
		return config.Pairs{}, err
	}
	list := make([][2]int, len(sets))
	for i, set := range sets {
		if len(set) != 2 {
			return config.Pairs{}, fmt.Errorf("pair %v: want two inputs a:b", set)
		}
		list[i] = [2]int{set[0], set[1]}
	}
	return config.Pairs{List: list}, nil
}

// parseSets reads a comma separated list of colon separated input sets such
// as "0:1:2,1:3".
func parseSets(s string) ([][]int, error) {
	var sets [][]int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var set []int
		for _, f := range strings.Split(part, ":") {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("input set %q: %w", part, err)
			}
			set = append(set, v)
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no input sets in %q", s)
	}
	return sets, nil
}

// parseRanges reads a comma separated list of lo:hi input ranges.
func parseRanges(s string) ([][]float64, error) {
	var rg [][]float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		bounds := strings.Split(part, ":")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("range %q: want lo:hi", part)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		rg = append(rg, []float64{lo, hi})
	}
	return rg, nil
}
