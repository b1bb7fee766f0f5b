package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"shogi/pkg/shogi"
)

type plyStats struct {
	games int
	total int
	min   int
	max   int
}

func (ps *plyStats) Add(plies int) {
	if ps.games == 0 || plies < ps.min {
		ps.min = plies
	}
	if plies > ps.max {
		ps.max = plies
	}
	ps.games++
	ps.total += plies
}

func main() {
	parquetPath := flag.String("parquet", "output.parquet", "input parquet file")
	gameID := flag.String("game", "", "print the moves of a single game")
	top := flag.Int("top", 5, "number of opening moves to list")
	parallel := flag.Int64("parallel", 4, "parquet read parallelism")
	flag.Parse()

	if *top < 0 {
		fatal(fmt.Errorf("top must be >= 0"))
	}
	records, err := shogi.ReadParquet(*parquetPath, *parallel)
	if err != nil {
		fatal(err)
	}

	if *gameID != "" {
		for _, record := range records {
			if record.GameID != *gameID {
				continue
			}
			fmt.Printf("%s: %s vs %s, %s\n", record.GameID, record.BlackName, record.WhiteName, record.Result)
			for _, move := range record.Moves {
				fmt.Printf("%4d %-5s %s\n", move.Ply, move.Player, move.Notation)
			}
			return
		}
		fatal(fmt.Errorf("game %s not found in %s", *gameID, *parquetPath))
	}

	results := make(map[string]int)
	openings := make(map[string]int)
	plies := &plyStats{}
	for _, record := range records {
		results[record.Result]++
		plies.Add(int(record.PlyCount))
		if len(record.Moves) > 0 {
			openings[record.Moves[0].Notation]++
		}
	}

	fmt.Printf("input parquet: %s\n", *parquetPath)
	fmt.Printf("games: %d\n", len(records))
	if plies.games > 0 {
		fmt.Printf("plies: min=%d max=%d avg=%.1f\n", plies.min, plies.max, float64(plies.total)/float64(plies.games))
	}
	fmt.Println("results:")
	for _, key := range sortedKeys(results) {
		fmt.Printf("%s,%d\n", key, results[key])
	}
	fmt.Printf("opening moves (top %d):\n", *top)
	keys := sortedKeys(openings)
	sort.SliceStable(keys, func(i, j int) bool {
		return openings[keys[i]] > openings[keys[j]]
	})
	if len(keys) > *top {
		keys = keys[:*top]
	}
	for _, key := range keys {
		fmt.Printf("%s,%d\n", key, openings[key])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
