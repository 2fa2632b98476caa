package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-infinitude/infinitude/infinitude"
	"github.com/go-infinitude/infinitude/internal/logging"
)

// infinitude-dump is a diagnostic tool: it connects to a gateway, prints
// the mapped state of every zone, and optionally keeps polling to show
// what changes between cycles.
func main() {
	var host string
	var port int
	var ssl, watch, verbose bool
	flag.StringVar(&host, "host", "", "Gateway host (required)")
	flag.IntVar(&port, "port", infinitude.DefaultPort, "Gateway port")
	flag.BoolVar(&ssl, "ssl", false, "Use https")
	flag.BoolVar(&watch, "watch", false, "Keep polling and print changes every 30s")
	flag.BoolVar(&verbose, "verbose", false, "Debug logging, including snapshot diffs")
	flag.Parse()

	if host == "" {
		fmt.Println("Error: -host is required")
		flag.Usage()
		os.Exit(1)
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logging.Init(level, true)

	client := infinitude.NewClient(infinitude.Config{Host: host, Port: port, SSL: ssl})
	if err := client.Connect(context.Background()); err != nil {
		fmt.Printf("Connect failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	dump(client)

	if !watch {
		return
	}
	for {
		time.Sleep(30 * time.Second)
		if err := client.Update(context.Background()); err != nil {
			fmt.Printf("Update failed: %v\n", err)
			continue
		}
		fmt.Printf("\n--- %s ---\n", time.Now().Format(time.RFC3339))
		dump(client)
	}
}

func dump(client *infinitude.Client) {
	sys := client.System
	out := map[string]any{}

	system := map[string]any{"localTime": sys.LocalTime().Format(time.RFC3339)}
	if brand, ok := sys.Brand(); ok {
		system["brand"] = brand
	}
	if model, ok := sys.Model(); ok {
		system["model"] = model
	}
	if firmware, ok := sys.Firmware(); ok {
		system["firmware"] = firmware
	}
	if mode, ok := sys.HVACMode(); ok {
		system["mode"] = mode
	}
	if source, ok := sys.HeatSource(); ok {
		system["heatSource"] = source
	}
	if oat, ok := sys.OutsideTemperature(); ok {
		system["outsideTemp"] = oat
	}
	if level, ok := sys.FilterLevel(); ok {
		system["filterLevel"] = level
	}
	out["system"] = system

	zones := map[string]any{}
	for _, id := range client.ZoneIDs() {
		zone := client.Zones[id]
		entry := map[string]any{"holdMode": zone.HoldMode()}
		if name, ok := zone.Name(); ok {
			entry["name"] = name
		}
		if temp, ok := zone.CurrentTemperature(); ok {
			entry["temperature"] = temp
		}
		if rh, ok := zone.CurrentHumidity(); ok {
			entry["humidity"] = rh
		}
		if htsp, ok := zone.HeatSetpoint(); ok {
			entry["heatSetpoint"] = htsp
		}
		if clsp, ok := zone.CoolSetpoint(); ok {
			entry["coolSetpoint"] = clsp
		}
		if fan, ok := zone.FanMode(); ok {
			entry["fanMode"] = fan
		}
		if action, ok := zone.HVACAction(); ok {
			entry["action"] = action
		}
		if activity, ok := zone.CurrentActivity(); ok {
			entry["activity"] = activity
		}
		if next, ok := zone.NextActivity(); ok {
			entry["nextActivity"] = next
		}
		if start, ok := zone.NextActivityStart(); ok {
			entry["nextActivityStart"] = start.Format(time.RFC3339)
		}
		zones[id] = entry
	}
	out["zones"] = zones

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Printf("Encoding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}
