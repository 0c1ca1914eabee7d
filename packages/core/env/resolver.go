package env

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands {{name}} references. Lookups are safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	logger    *zap.Logger
	now       func() time.Time
}

type ResolverOption func(*Resolver)

func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		variables: make(map[string]string),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetVariables adds vars, replacing existing names.
func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve replaces every reference in input:
//
//	{{name}}        a variable, falling back to the environment variable name
//	{{$NAME}}       the environment variable NAME
//	{{$uuid}}       a fresh random UUID
//	{{$timestamp}}  the current Unix time in seconds
func (r *Resolver) Resolve(input string) string {
	if !strings.Contains(input, "{{") {
		return input
	}
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.lookup(expr); ok {
			return val
		}
		r.logger.Warn("unresolved variable", zap.String("name", expr))
		return match
	})
}

func (r *Resolver) lookup(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		switch name {
		case "uuid":
			return uuid.NewString(), true
		case "timestamp":
			return strconv.FormatInt(r.now().Unix(), 10), true
		}
		return os.LookupEnv(name)
	}

	if val, ok := r.GetVariable(expr); ok {
		return val, true
	}
	return os.LookupEnv(expr)
}

// Unresolved lists the references in input that Resolve would leave in place.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if _, ok := r.lookup(expr); !ok {
			names = append(names, expr)
		}
	}
	return names
}
