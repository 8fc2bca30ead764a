package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/simhost/internal/api"
	"github.com/banshee-data/simhost/internal/config"
	"github.com/banshee-data/simhost/internal/db"
	"github.com/banshee-data/simhost/internal/episode"
	"github.com/banshee-data/simhost/internal/roadnet"
	"github.com/banshee-data/simhost/internal/security"
	"github.com/banshee-data/simhost/internal/streaming"
	"github.com/banshee-data/simhost/internal/version"
)

var (
	//go:embed maps/town01.json
	defaultMapDefinition string

	configPath  = flag.String("config", "", "Path to host config JSON")
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	dbPath      = flag.String("db", "", "Database path (overrides config)")
	mapPath     = flag.String("map", "", "Map definition JSON path (overrides config)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// defaultWorld builds the built-in level: one sub-map per defined layer and a
// handful of actors, enough to exercise streaming without an engine attached.
func defaultWorld(mapName string) *episode.StaticWorld {
	subMaps := []string{
		fmt.Sprintf("/Game/%s/Sub/%s_Buildings", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_Decals", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_Foliage", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_Ground", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_ParkedVehicles", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_Particles", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_Props", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_StreetLights", mapName, mapName),
		fmt.Sprintf("/Game/%s/Sub/%s_Walls", mapName, mapName),
	}
	actors := []episode.Actor{
		{ID: 1, Name: "house_01", SubMap: subMaps[0]},
		{ID: 2, Name: "house_02", SubMap: subMaps[0]},
		{ID: 3, Name: "tree_03", SubMap: subMaps[2]},
		{ID: 4, Name: "bench_04", SubMap: subMaps[6]},
		{ID: 5, Name: "lamp_05", SubMap: subMaps[7]},
		{ID: 6, Name: "wall_06", SubMap: subMaps[8]},
	}
	return episode.NewStaticWorld(subMaps, actors)
}

func loadMapText(cfg *config.HostConfig) string {
	path := cfg.GetMapPath()
	if *mapPath != "" {
		path = *mapPath
	}
	if path == "" {
		return defaultMapDefinition
	}

	if err := security.ValidateInputPath(path); err != nil {
		log.Fatalf("Refusing map path: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read map definition: %v", err)
	}
	return string(data)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("simhost %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyHostConfig()
	if *configPath != "" {
		if err := security.ValidateInputPath(*configPath); err != nil {
			log.Fatalf("Refusing config path: %v", err)
		}
		var err error
		cfg, err = config.LoadHostConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	listenAddr := cfg.GetListenAddr()
	if *listen != "" {
		listenAddr = *listen
	}
	databasePath := cfg.GetDBPath()
	if *dbPath != "" {
		databasePath = *dbPath
	}
	mapName := cfg.GetMapName()

	log.Printf("simhost %s starting (map %s)", version.Version, mapName)

	database, err := db.NewDB(databasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var world *episode.StaticWorld
	if len(cfg.SubMaps) > 0 {
		actors := make([]episode.Actor, 0, len(cfg.Actors))
		for _, a := range cfg.Actors {
			actors = append(actors, episode.Actor{ID: a.ID, Name: a.Name, SubMap: a.SubMap})
		}
		world = episode.NewStaticWorld(cfg.SubMaps, actors)
	} else {
		world = defaultWorld(mapName)
	}

	backend := streaming.NewSimBackend(nil, cfg.GetBackendLatency())

	ep, err := episode.NewEpisode(roadnet.NewDefinitionLoader(), backend, world)
	if err != nil {
		log.Fatalf("Failed to create episode: %v", err)
	}
	recorder := db.NewRecorder(database)
	ep.SetTelemetry(recorder, recorder)

	if err := ep.InitGame(mapName, loadMapText(cfg)); err != nil {
		log.Fatalf("Failed to initialize episode: %v", err)
	}
	if err := ep.Begin(cfg.GetInitialLayers()); err != nil {
		log.Fatalf("Failed to begin episode: %v", err)
	}
	defer ep.End()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes
		database.AttachAdminRoutes(mux)

		// mount the API handlers
		apiMux := api.NewServer(ep, database).ServeMux()
		mux.Handle("/api/", apiMux)

		server := &http.Server{
			Addr:    listenAddr,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", listenAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
