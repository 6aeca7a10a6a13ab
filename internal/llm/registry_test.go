package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stellarlinkco/sandbench/internal/config"
)

// benchProvider is a registry fixture; its completions are never called.
type benchProvider struct {
	name string
}

func (p benchProvider) Name() string { return p.name }
func (p benchProvider) Complete(context.Context, *Request) (*Response, error) {
	return nil, errors.New("not used")
}
func (p benchProvider) CompleteWithTools(context.Context, *Request) (*EvalResult, error) {
	return nil, errors.New("not used")
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	var nilReg *Registry
	nilReg.Register(benchProvider{name: "claude"}) // no-op, must not panic

	r := &Registry{}
	r.Register(nil)
	r.Register(benchProvider{name: " \t "})
	if _, ok := r.Get("claude"); ok {
		t.Fatal("Get: provider registered from nil/blank input")
	}

	r.Register(benchProvider{name: "  Claude "})
	if r.providers == nil {
		t.Fatal("providers map not initialized")
	}
	if got, ok := r.Get("claude"); !ok || got == nil {
		t.Fatalf("Get(claude): ok=%v provider=%v", ok, got)
	}
	if _, ok := r.Get(" \t "); ok {
		t.Fatal("Get(blank): unexpected ok")
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistryFromConfig(nil); err == nil {
		t.Fatal("NewRegistryFromConfig(nil): expected error")
	}

	_, err := NewRegistryFromConfig(&config.Config{
		LLM: config.LLMConfig{
			Providers: map[string]config.ProviderConfig{
				"mistral": {APIKey: "k"},
			},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("unconfigurable provider: got %v", err)
	}

	reg, err := NewRegistryFromConfig(&config.Config{
		LLM: config.LLMConfig{
			Providers: map[string]config.ProviderConfig{
				"  ":        {},
				"OpenAI":    {APIKey: "k1", BaseURL: "http://example.test/v1", Model: "gpt-4o"},
				"Anthropic": {APIKey: "k2"},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRegistryFromConfig: %v", err)
	}
	for _, name := range []string{"openai", "claude"} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("Get(%s): not found", name)
		}
	}
}

func TestDefaultProviderFromConfig(t *testing.T) {
	t.Parallel()

	if _, err := DefaultProviderFromConfig(nil); err == nil {
		t.Fatal("DefaultProviderFromConfig(nil): expected error")
	}

	// A single configured provider is the default even when none is named.
	p, err := DefaultProviderFromConfig(&config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: " \t ",
			Providers: map[string]config.ProviderConfig{
				"openai": {APIKey: "k"},
			},
		},
	})
	if err != nil {
		t.Fatalf("single provider fallback: %v", err)
	}
	if p == nil || p.Name() != "openai" {
		t.Fatalf("provider: got %#v", p)
	}

	p, err = DefaultProviderFromConfig(&config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai": {APIKey: "k1"},
				"claude": {APIKey: "k2"},
			},
		},
	})
	if err != nil {
		t.Fatalf("configured default: %v", err)
	}
	if p == nil || p.Name() != "openai" {
		t.Fatalf("provider: got %#v", p)
	}

	_, err = DefaultProviderFromConfig(&config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "anthropic",
			Providers: map[string]config.ProviderConfig{
				"openai": {APIKey: "k1"},
				"claude": {APIKey: "k2"},
			},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "available: claude, openai") {
		t.Fatalf("unregistered default: got %v", err)
	}

	_, err = DefaultProviderFromConfig(&config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "claude",
			Providers:       map[string]config.ProviderConfig{},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "available:") {
		t.Fatalf("no providers: got %v", err)
	}
}
