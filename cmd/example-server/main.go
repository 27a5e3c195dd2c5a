package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/keybucket/keybucket/pkg/httplimit"
	"github.com/keybucket/keybucket/pkg/limiter"
)

// Used when no rules file is given: 5 requests per second per IP on /ping.
const defaultRules = `
rules:
  - path: /ping
    capacity: 5
    period: 1
    by: [ip]
`

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	rulesPath := flag.String("rules", "", "path to a YAML rules file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	data := []byte(defaultRules)
	if *rulesPath != "" {
		var err error
		data, err = os.ReadFile(*rulesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *rulesPath).Msg("reading rules file")
		}
	}

	rules, err := httplimit.LoadRules(data)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing rules")
	}

	recorder := limiter.NewPrometheusRecorder(prometheus.DefaultRegisterer)
	router, err := httplimit.NewRouter(rules,
		httplimit.WithRouterLogger(log),
		httplimit.WithStoreOptions(limiter.WithRecorder(recorder)),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("building rate limit router")
	}
	defer router.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Pong!\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	log.Info().Str("addr", *addr).Int("rules", len(rules)).Msg("server listening")
	if err := http.ListenAndServe(*addr, router.Wrap(mux)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
