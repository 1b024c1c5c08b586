// Package namedenv provides named environments: separate sets of variables
// loaded from dotenv files, each falling back to a shared common set.
//
// Lookup order for a named environment is:
//
//  1. values loaded into the named environment
//  2. values loaded into the common environment
//  3. the process environment
//  4. the caller's fallback
//
// The common environment is the one with the empty name.
package namedenv

import (
	"os"
	"sort"
	"sync"

	"github.com/joho/godotenv"

	"github.com/oneenv-project/oneenv/internal/model"
)

// Common is the name of the common environment.
const Common = ""

// Store holds every named environment of a process.
type Store struct {
	mu     sync.RWMutex
	envs   map[string]*Env
	lookup func(string) (string, bool)
}

// NewStore creates an empty Store that falls back to the process environment.
func NewStore() *Store {
	return NewStoreWithLookup(os.LookupEnv)
}

// NewStoreWithLookup creates a Store with a custom process environment lookup.
// A nil lookup disables the process environment layer.
func NewStoreWithLookup(lookup func(string) (string, bool)) *Store {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &Store{envs: make(map[string]*Env), lookup: lookup}
}

// Env returns the environment with the given name, creating it on first use.
// The empty name returns the common environment.
func (s *Store) Env(name string) *Env {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.envs[name]; ok {
		return e
	}
	e := &Env{name: name, store: s, values: make(map[string]string)}
	s.envs[name] = e
	return e
}

// Names returns the sorted names of every environment created so far.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.envs))
	for n := range s.envs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Env is one named set of variables.
type Env struct {
	name   string
	store  *Store
	mu     sync.RWMutex
	values map[string]string
}

// Name returns the environment name; empty for the common environment.
func (e *Env) Name() string { return e.name }

// Load reads dotenv files into the environment. Later files override earlier
// ones, and loaded values override values already present.
func (e *Env) Load(paths ...string) error {
	for _, p := range paths {
		values, err := godotenv.Read(p)
		if err != nil {
			return &model.IOError{Op: "read", Path: p, Err: err}
		}
		e.Set(values)
	}
	return nil
}

// Set merges values into the environment.
func (e *Env) Set(values map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range values {
		e.values[k] = v
	}
}

// Lookup resolves key through the named, common and process layers.
func (e *Env) Lookup(key string) (string, bool) {
	if v, ok := e.own(key); ok {
		return v, true
	}
	if e.name != Common {
		if v, ok := e.store.Env(Common).own(key); ok {
			return v, true
		}
	}
	return e.store.lookup(key)
}

// Get resolves key, returning fallback when no layer defines it.
func (e *Env) Get(key, fallback string) string {
	if v, ok := e.Lookup(key); ok {
		return v
	}
	return fallback
}

func (e *Env) own(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[key]
	return v, ok
}
