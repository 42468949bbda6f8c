package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fluentia-app/fluentia/pkg/provider/llm"
	"github.com/fluentia-app/fluentia/pkg/provider/stt"
	"github.com/fluentia-app/fluentia/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Factory builds a provider of type T from its configuration entry.
type Factory[T any] func(ProviderEntry) (T, error)

// kindTable holds the registered factories for one provider kind. The kind
// label only appears in error messages.
type kindTable[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

func newKindTable[T any](kind string) *kindTable[T] {
	return &kindTable[T]{kind: kind, factories: make(map[string]Factory[T])}
}

// register stores factory under name, overwriting any previous registration.
func (kt *kindTable[T]) register(name string, factory Factory[T]) {
	kt.mu.Lock()
	defer kt.mu.Unlock()
	kt.factories[name] = factory
}

// create instantiates a provider using the factory registered under entry.Name.
func (kt *kindTable[T]) create(entry ProviderEntry) (T, error) {
	kt.mu.RLock()
	factory, ok := kt.factories[entry.Name]
	kt.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, kt.kind, entry.Name)
	}
	return factory(entry)
}

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	llm *kindTable[llm.Provider]
	stt *kindTable[stt.Provider]
	tts *kindTable[tts.Provider]
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm: newKindTable[llm.Provider]("llm"),
		stt: newKindTable[stt.Provider]("stt"),
		tts: newKindTable[tts.Provider]("tts"),
	}
}

// RegisterLLM registers a chat provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory Factory[llm.Provider]) {
	r.llm.register(name, factory)
}

// RegisterSTT registers a speech-to-text provider factory under name.
func (r *Registry) RegisterSTT(name string, factory Factory[stt.Provider]) {
	r.stt.register(name, factory)
}

// RegisterTTS registers a text-to-speech provider factory under name.
func (r *Registry) RegisterTTS(name string, factory Factory[tts.Provider]) {
	r.tts.register(name, factory)
}

// CreateLLM instantiates a chat provider from its configuration entry.
// Returns [ErrProviderNotRegistered] if entry.Name has no registered factory.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return r.llm.create(entry)
}

// CreateSTT instantiates a speech-to-text provider from its configuration entry.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	return r.stt.create(entry)
}

// CreateTTS instantiates a text-to-speech provider from its configuration entry.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	return r.tts.create(entry)
}
