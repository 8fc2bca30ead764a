// Command signal-audit resolves every signal in a map definition offline and
// prints the lanes each one governs, without needing a running simhost.
//
// Usage:
//
//	go run ./cmd/tools/signal-audit -map <definition.json>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/simhost/internal/roadnet"
	"github.com/banshee-data/simhost/internal/security"
)

func main() {
	mapPath := flag.String("map", "", "Map definition JSON path")
	drivableOnly := flag.Bool("drivable", false, "Only print drivable lane associations")
	flag.Parse()

	if *mapPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: signal-audit -map <definition.json> [-drivable]")
		os.Exit(2)
	}
	if err := security.ValidateInputPath(*mapPath); err != nil {
		log.Fatalf("Refusing map path: %v", err)
	}

	data, err := os.ReadFile(*mapPath)
	if err != nil {
		log.Fatalf("Failed to read map definition: %v", err)
	}

	net, err := roadnet.NewDefinitionLoader().Load(string(data))
	if err != nil {
		log.Fatalf("Failed to parse map definition: %v", err)
	}

	refs := roadnet.ResolveReferences(net)
	fmt.Printf("%d roads, %d signal references\n\n", len(net.Roads()), len(refs))

	for _, ref := range refs {
		assocs := roadnet.ResolveLanes(net, ref.Signal)
		if *drivableOnly {
			assocs = roadnet.DrivableLanes(net, ref.Signal)
		}
		fmt.Printf("signal %s (road %d, s=%.1f):\n", ref.Signal.ID, ref.RoadID, ref.Signal.S)
		if len(assocs) == 0 {
			fmt.Println("  no lane associations")
			continue
		}
		for _, a := range assocs {
			marker := " "
			if a.Drivable {
				marker = "*"
			}
			fmt.Printf("  %s lane %+d\n", marker, a.LaneID)
		}
	}
}
