package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	formguard "github.com/MrEthical07/formguard"
	"github.com/MrEthical07/formguard/middleware"
	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

type demoConfig struct {
	Listen     string `yaml:"listen"`
	SecretKey  string `yaml:"secret_key"`
	ContextURL string `yaml:"context_url"`
	MaxAge     string `yaml:"max_age"`
	Stateful   bool   `yaml:"stateful"`
	RedisAddr  string `yaml:"redis_addr"`
}

func loadConfig(path string) (demoConfig, error) {
	cfg := demoConfig{
		Listen:     ":8080",
		ContextURL: "/submit",
		MaxAge:     "1h",
		Stateful:   true,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	var (
		configPath = flag.String("config", "", "path to yaml config; defaults apply when empty")
		redisAddr  = flag.String("redis-addr", "", "redis address; overrides config, miniredis when empty")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}

	maxAge, err := time.ParseDuration(cfg.MaxAge)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config max_age: %v\n", err)
		os.Exit(2)
	}

	secret := []byte(cfg.SecretKey)
	if len(secret) == 0 {
		fmt.Fprintln(os.Stderr, "secret_key missing, using an ephemeral demo key")
		secret = []byte(fmt.Sprintf("demo-%d", time.Now().UnixNano()))
	}

	builder := formguard.New().
		WithSecretKey(secret).
		WithContextURL(cfg.ContextURL).
		WithMaxAge(maxAge).
		WithAuditSink(formguard.NewJSONWriterSink(os.Stdout)).
		WithMetricsEnabled(true)

	var cleanup func()
	if cfg.Stateful {
		addr := cfg.RedisAddr
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
				os.Exit(1)
			}
			addr = mr.Addr()
			cleanup = mr.Close
			fmt.Printf("using miniredis at %s\n", addr)
		}

		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		builder = builder.WithStateful().WithRedis(client)
	}

	guard, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build guard: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	router := mux.NewRouter()
	router.Use(middleware.Protect(guard, middleware.Options{}))

	router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		field, err := guard.RenderField()
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!doctype html>
<form method="POST" action=%q>
  %s
  <input type="text" name="message">
  <button type="submit">Send</button>
</form>
`, cfg.ContextURL, field)
	}).Methods(http.MethodGet)

	router.HandleFunc(cfg.ContextURL, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "accepted: %s\n", r.FormValue("message"))
	}).Methods(http.MethodPost)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		snap := guard.Metrics().Snapshot()
		fmt.Fprintf(w, "issued=%d success=%d invalid=%d expired=%d missing=%d reused=%d\n",
			snap.Counters[formguard.MetricTokenIssued],
			snap.Counters[formguard.MetricValidateSuccess],
			snap.Counters[formguard.MetricValidateInvalid],
			snap.Counters[formguard.MetricValidateExpired],
			snap.Counters[formguard.MetricValidateMissing],
			snap.Counters[formguard.MetricValidateReused],
		)
	}).Methods(http.MethodGet)

	fmt.Printf("listening on %s\n", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, router); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}
