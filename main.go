// Package main provides the gridplan command line entry point: load a
// scenario, run the annealer, and print the resulting schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devskill-org/gridplan/anneal"
	"github.com/devskill-org/gridplan/entsoe"
	"github.com/devskill-org/gridplan/liveserver"
	"github.com/devskill-org/gridplan/meteo"
	"github.com/devskill-org/gridplan/prognosis"
	"github.com/devskill-org/gridplan/result"
	"github.com/devskill-org/gridplan/sigenergy"
	"github.com/devskill-org/gridplan/solarforecast"
	"github.com/devskill-org/gridplan/solver"
	"github.com/devskill-org/gridplan/telemetry"
	"github.com/devskill-org/gridplan/units"
)

func main() {
	var (
		scenarioFile = flag.String("scenario", "scenario.json", "Scenario file path")
		configFile   = flag.String("config", "", "Solver config file path (defaults applied if omitted)")
		batteryAddr  = flag.String("battery-info", "", "Show live battery state from a plant at this Modbus TCP address and exit")
		plantAddr    = flag.String("plant-info", "", "Show detailed plant diagnostics from a Modbus TCP address and exit")
		liveOnly     = flag.Bool("live", false, "Start the websocket progress server while solving")
		help         = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if *batteryAddr != "" {
		showBatteryInfo(*batteryAddr)
		return
	}

	if *plantAddr != "" {
		if err := sigenergy.ShowPlantInfo(*plantAddr); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		return
	}

	cfg := solver.DefaultConfig()
	if *configFile != "" {
		loaded, err := solver.LoadConfig(*configFile)
		if err != nil {
			fmt.Println("Error loading config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	scen, err := LoadScenario(*scenarioFile)
	if err != nil {
		fmt.Println("Error loading scenario:", err)
		os.Exit(1)
	}

	inst, err := buildInstance(scen, cfg)
	if err != nil {
		fmt.Println("Error building instance:", err)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "[GRIDPLAN] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Printf("Shutdown signal received, cancelling solve...")
		cancel()
	}()

	var onProgress anneal.ProgressFunc
	if *liveOnly {
		hub := liveserver.NewHub()
		defer hub.Close()

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.ServeWS)
		srv := &http.Server{Addr: ":8090", Handler: mux}
		go func() {
			logger.Printf("Live progress server listening on :8090/ws")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("live server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())

		onProgress = hub.Publish
	}

	sv := solver.NewSolver(logger)
	healthServer := solver.NewHealthServer(sv, cfg.HealthCheckPort)
	if err := healthServer.Start(); err != nil {
		logger.Printf("health server error: %v", err)
	}
	defer healthServer.Stop(context.Background())

	logger.Printf("Solving %d constants, %d variables, %d batteries over %s...",
		len(scen.Constants), len(scen.Variables), len(scen.Batteries), scen.Horizon)

	sched, status, err := sv.Run(ctx, inst, cfg, onProgress)
	if err != nil {
		logger.Printf("Solve failed: %v", err)
		os.Exit(1)
	}

	printSchedule(sched, scen, status)
}

// buildInstance assembles a solver.Instance from a Scenario, wiring a
// price provider (ENTSO-E if a token is configured, otherwise a flat
// price) and an optional solar forecast provider (clear-sky, attenuated by
// live weather if a user agent is configured).
func buildInstance(scen *Scenario, cfg *solver.Config) (solver.Instance, error) {
	constants, err := scen.compileConstants()
	if err != nil {
		return solver.Instance{}, err
	}
	past, err := scen.compilePast()
	if err != nil {
		return solver.Instance{}, err
	}

	inst := solver.Instance{
		Start:     scen.Start,
		Horizon:   scen.Horizon,
		Constants: constants,
		Variables: scen.compileVariables(),
		Batteries: scen.Batteries,
		Past:      past,
	}

	if scen.EntsoeToken != "" {
		loc, err := entsoeLocation(scen.EntsoeLocation)
		if err != nil {
			return solver.Instance{}, err
		}
		urlFormat := scen.EntsoeURLFormat
		if urlFormat == "" {
			urlFormat = "https://web-api.tp.entsoe.eu/api?documentType=A44&out_Domain=10YLV-1001A00074&in_Domain=10YLV-1001A00074&periodStart=%s&periodEnd=%s&securityToken=%s"
		}
		inst.PriceProvider = entsoe.NewPriceProvider(scen.EntsoeToken, urlFormat, loc)
	} else {
		inst.PriceProvider = prognosis.Constant(units.EuroPerWh(scen.FlatPriceEURPerMWh / 1_000_000))
	}

	if scen.SolarPeakPowerW > 0 {
		var clouds solarforecast.CloudCoverage
		if scen.WeatherUserAgent != "" {
			client := meteo.NewClient(scen.WeatherUserAgent)
			clouds = meteo.NewForecastCache(client, meteo.Location{Latitude: cfg.Latitude, Longitude: cfg.Longitude}, cfg.GridStep*4)
		}
		inst.GenProvider = solarforecast.New(cfg.Latitude, cfg.Longitude, units.Watt(scen.SolarPeakPowerW), clouds)
	}

	return inst, nil
}

func entsoeLocation(name string) (*time.Location, error) {
	if name == "" {
		name = "CET"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading entsoe_location %q: %w", name, err)
	}
	return loc, nil
}

// printSchedule prints the assigned start and end time of each constant,
// and, sampled once per hour over the scenario horizon, the power of each
// variable action and the charge level and flow of each battery.
func printSchedule(sched *result.Schedule, scen *Scenario, status anneal.Status) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("SCHEDULE")
	fmt.Println("========================================")
	fmt.Printf("Termination reason: %s\n", status.Reason)
	fmt.Printf("Iterations:         %d\n", status.Iterations)
	fmt.Printf("Initial cost:       %.4f EUR\n", float64(status.InitialCost))
	fmt.Printf("Final cost:         %.4f EUR\n", float64(status.FinalCost))
	fmt.Println()

	for _, id := range sched.ConstantIDs() {
		start, end, ok := sched.ConstantWindow(id)
		if !ok {
			continue
		}
		fmt.Printf("constant %-20s %s -> %s\n", id, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	step := time.Hour
	if step > scen.Horizon {
		step = scen.Horizon
	}
	for _, id := range sched.VariableIDs() {
		fmt.Printf("variable %-20s ", id)
		for t := scen.Start; t.Before(scen.Start.Add(scen.Horizon)); t = t.Add(step) {
			power, ok := sched.VariablePowerAt(id, t)
			if !ok {
				continue
			}
			fmt.Printf("%7.0fW ", float64(power))
		}
		fmt.Println()
	}

	for _, id := range sched.BatteryIDs() {
		fmt.Printf("battery  %-20s ", id)
		for t := scen.Start; t.Before(scen.Start.Add(scen.Horizon)); t = t.Add(step) {
			charge, flow, ok := sched.BatteryStateAt(id, t)
			if !ok {
				continue
			}
			fmt.Printf("(%6.0fWh, %6.0fW) ", float64(charge), float64(flow))
		}
		fmt.Println()
	}
	fmt.Println("========================================")
}

func showBatteryInfo(address string) {
	reader, err := telemetry.NewTCPReader(address)
	if err != nil {
		fmt.Println("Error connecting to plant:", err)
		os.Exit(1)
	}
	defer reader.Close()

	snapshot, err := reader.ReadBattery()
	if err != nil {
		fmt.Println("Error reading battery state:", err)
		os.Exit(1)
	}

	fmt.Printf("Battery capacity: %.0f Wh\n", float64(snapshot.Capacity))
	fmt.Printf("Battery charge:   %.0f Wh (%.1f%%)\n", float64(snapshot.ChargeLevel),
		100*float64(snapshot.ChargeLevel)/float64(snapshot.Capacity))
}

func showHelp() {
	fmt.Println("gridplan - simulated-annealing scheduler for deferrable loads, batteries, and grid price")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  gridplan [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  gridplan -scenario scenario.json")
	fmt.Println("  gridplan -scenario scenario.json -config config.json -live")
	fmt.Println("  gridplan -battery-info 192.168.1.100:502")
	fmt.Println("  gridplan -plant-info 192.168.1.100:502")
}
