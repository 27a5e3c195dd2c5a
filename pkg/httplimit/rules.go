package httplimit

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/keybucket/keybucket/pkg/limiter"
)

// Identifier kinds accepted in a rule's "by" list. A header identifier is
// written "header:<Name>".
const (
	LimitByIP     = "ip"
	LimitByPath   = "path"
	LimitByMethod = "method"

	headerPrefix = "header:"
)

// ErrInvalidRules wraps all rule validation failures.
var ErrInvalidRules = errors.New("httplimit: invalid rules")

// Rule limits requests whose path matches Path. Capacity tokens replenish
// over Period seconds, tracked separately per identity named by By.
type Rule struct {
	Path     string   `yaml:"path"`
	Regex    bool     `yaml:"regex"`
	Capacity int64    `yaml:"capacity"`
	Period   float64  `yaml:"period"` // seconds
	By       []string `yaml:"by"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules parses YAML of the form:
//
//	rules:
//	  - path: /api/login
//	    capacity: 5
//	    period: 60
//	    by: [ip]
//	  - path: ^/api/v[0-9]+/search$
//	    regex: true
//	    capacity: 100
//	    period: 1
//	    by: ["header:X-Api-Key"]
//
// Validation happens in NewRouter, not here.
func LoadRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("httplimit: parsing rules: %w", err)
	}
	return f.Rules, nil
}

type compiledRule struct {
	rule    Rule
	pattern *regexp.Regexp // nil means exact match
	key     KeyFunc
	store   *limiter.Store
}

func (cr *compiledRule) matches(path string) bool {
	if cr.pattern != nil {
		return cr.pattern.MatchString(path)
	}
	return cr.rule.Path == path
}

// Router applies per-path rate limit rules. Each rule owns an independent
// store, so two rules never share token state even for the same caller.
type Router struct {
	rules     []*compiledRule
	onLimited LimitedHandler
	log       zerolog.Logger
	storeOpts []limiter.Option
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger attaches a zerolog logger for deny and skip events.
func WithRouterLogger(l zerolog.Logger) RouterOption {
	return func(rt *Router) { rt.log = l }
}

// WithRouterOnLimited overrides the rejection response for every rule.
func WithRouterOnLimited(h LimitedHandler) RouterOption {
	return func(rt *Router) { rt.onLimited = h }
}

// WithStoreOptions passes options (recorder, shards, idle TTL, ...) through
// to the store built for each rule.
func WithStoreOptions(opts ...limiter.Option) RouterOption {
	return func(rt *Router) { rt.storeOpts = opts }
}

// NewRouter validates the rules and builds one store per rule. It fails
// fast: a bad capacity, period, regex, duplicate path, or unknown
// identifier kind is reported here and never surfaces mid-traffic.
func NewRouter(rules []Rule, opts ...RouterOption) (*Router, error) {
	rt := &Router{
		onLimited: RejectWithRetryAfter,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if len(rules) == 0 {
		rt.log.Warn().Msg("no rate limit rules defined")
	}

	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if seen[rule.Path] {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidRules, rule.Path)
		}
		seen[rule.Path] = true

		cr := &compiledRule{rule: rule}

		if rule.Regex {
			pattern, err := regexp.Compile(rule.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: path %q: %v", ErrInvalidRules, rule.Path, err)
			}
			cr.pattern = pattern
		}

		key, err := keyFuncFor(rule.By)
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %v", ErrInvalidRules, rule.Path, err)
		}
		cr.key = key

		rate := limiter.Rate{
			Capacity: rule.Capacity,
			Period:   time.Duration(rule.Period * float64(time.Second)),
		}
		store, err := limiter.New(rate, rt.storeOpts...)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("httplimit: rule for path %q: %w", rule.Path, err)
		}
		cr.store = store

		rt.rules = append(rt.rules, cr)
	}
	return rt, nil
}

func keyFuncFor(by []string) (KeyFunc, error) {
	if len(by) == 0 {
		return nil, errors.New("at least one identifier kind required")
	}
	fns := make([]KeyFunc, 0, len(by))
	for _, kind := range by {
		switch {
		case kind == LimitByIP:
			fns = append(fns, ByClientIP)
		case kind == LimitByPath:
			fns = append(fns, ByPath)
		case kind == LimitByMethod:
			fns = append(fns, ByMethod)
		case strings.HasPrefix(kind, headerPrefix):
			name := strings.TrimPrefix(kind, headerPrefix)
			if name == "" {
				return nil, fmt.Errorf("identifier kind %q missing header name", kind)
			}
			fns = append(fns, ByHeader(name))
		default:
			return nil, fmt.Errorf("unknown identifier kind %q", kind)
		}
	}
	if len(fns) == 1 {
		return fns[0], nil
	}
	return ComposeKeys(fns...), nil
}

// Wrap returns a handler that enforces every matching rule before calling
// next. A request missing one rule's identifier skips that rule only.
func (rt *Router) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, cr := range rt.rules {
			if !cr.matches(r.URL.Path) {
				continue
			}

			key := cr.key(r)
			if key == "" {
				rt.log.Debug().Str("path", r.URL.Path).Str("rule", cr.rule.Path).Msg("identifier missing, skipping rule")
				continue
			}

			dec := cr.store.Allow(key)
			if !dec.Allow {
				rt.log.Warn().Str("key", key).Str("rule", cr.rule.Path).Dur("retry_after", dec.RetryAfter).Msg("rate limit exceeded")
				rt.onLimited(w, r, dec)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Close releases every rule's store (stops eviction sweeps, if enabled).
func (rt *Router) Close() {
	for _, cr := range rt.rules {
		if cr.store != nil {
			cr.store.Close()
		}
	}
}
