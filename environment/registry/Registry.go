// Package registry implements a registry of named task identifiers.
// Each identifier points at the entry points from which the task's
// environment configuration and training algorithm configuration can
// be loaded.
//
// Task packages register their identifiers upon initialization.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// Keyword argument keys used by registered tasks
const (
	EnvCfgEntryPoint  = "env_cfg_entry_point"
	SKRLCfgEntryPoint = "skrl_cfg_entry_point"
)

var (
	// ErrDuplicateID is returned when registering an identifier twice
	ErrDuplicateID = errors.New("identifier already registered")

	// ErrUnknownID is returned when looking up an identifier which has
	// not been registered
	ErrUnknownID = errors.New("identifier not registered")

	// ErrNoKwarg is returned when an EnvSpec has no keyword argument
	// with a requested key
	ErrNoKwarg = errors.New("no such keyword argument")
)

// EnvSpec describes a registered task
type EnvSpec struct {
	ID                string            `json:"id"`
	EntryPoint        string            `json:"entry_point"`
	DisableEnvChecker bool              `json:"disable_env_checker"`
	Kwargs            map[string]string `json:"kwargs"`
}

// Kwarg returns the keyword argument stored under key
func (e EnvSpec) Kwarg(key string) (string, error) {
	value, ok := e.Kwargs[key]
	if !ok {
		return "", fmt.Errorf("kwarg: %v: %q: %w", e.ID, key, ErrNoKwarg)
	}
	return value, nil
}

// Registry maps task identifiers to EnvSpecs
type Registry struct {
	specs map[string]EnvSpec
}

// New returns a new, empty Registry
func New() *Registry {
	return &Registry{specs: make(map[string]EnvSpec)}
}

// Register registers an EnvSpec under its identifier
func (r *Registry) Register(spec EnvSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("register: empty identifier")
	}
	if _, ok := r.specs[spec.ID]; ok {
		return fmt.Errorf("register: %v: %w", spec.ID, ErrDuplicateID)
	}

	kwargs := make(map[string]string, len(spec.Kwargs))
	for k, v := range spec.Kwargs {
		kwargs[k] = v
	}
	spec.Kwargs = kwargs
	r.specs[spec.ID] = spec
	return nil
}

// Spec returns the EnvSpec registered under id
func (r *Registry) Spec(id string) (EnvSpec, error) {
	spec, ok := r.specs[id]
	if !ok {
		return EnvSpec{}, fmt.Errorf("spec: %v: %w", id, ErrUnknownID)
	}
	return spec, nil
}

// IDs returns all registered identifiers in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// registered is the registry used by the package level functions
var registered *Registry

func init() {
	registered = New()
}

// Register registers an EnvSpec with the package registry
func Register(spec EnvSpec) error {
	return registered.Register(spec)
}

// MustRegister is like Register but panics on error. It is intended
// for use in package initialization.
func MustRegister(spec EnvSpec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

// Spec returns the EnvSpec registered under id with the package
// registry
func Spec(id string) (EnvSpec, error) {
	return registered.Spec(id)
}

// IDs returns all identifiers registered with the package registry
func IDs() []string {
	return registered.IDs()
}
