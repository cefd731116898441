package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"anukritich/nivaran/pkg/caseservice"
	"anukritich/nivaran/pkg/config"
	"anukritich/nivaran/pkg/directions"
	"anukritich/nivaran/pkg/directory"
	"anukritich/nivaran/pkg/kv"
	"anukritich/nivaran/pkg/server/rest"
	"anukritich/nivaran/pkg/server/rest/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"

	"github.com/cockroachdb/pebble"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the config file")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	db, err := pebble.Open(cfg.Cache.Dir, &pebble.Options{})
	if err != nil {
		log.Fatal(err)
	}

	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	provider, err := directions.NewClient(cfg.Directions.BaseURL, cfg.Directions.APIKey, cfg.Directions.TrafficModel)
	if err != nil {
		log.Fatal(err)
	}
	cached := kv.NewCachedProvider(provider, kvDB, time.Duration(cfg.Directions.CacheTTLMinutes)*time.Minute)

	backend, err := caseservice.NewClient(cfg.Backend.BaseURL)
	if err != nil {
		log.Fatal(err)
	}

	idx := directory.NewIndex()
	dispatchSvc := service.NewDispatchService(backend, idx)
	if err := dispatchSvc.WarmDirectory(context.Background()); err != nil {
		// serve anyway, the index warms on the next restart
		log.Printf("warming NGO/case directory: %v", err)
	}

	// positions arrive through the REST API, there is no device stream here
	trackingSvc := service.NewTrackingService(cached, nil)

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rest.DispatchRouter(r, trackingSvc, dispatchSvc, m)

	fmt.Printf("server started at %s\n", cfg.Server.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.Server.ListenAddr, r))
}
