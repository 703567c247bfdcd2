package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/nikhilbhutani/reviewinsight/internal/config"
)

type gateway struct {
	providers       map[string]Provider
	defaultProvider string
	defaultModel    string
}

// NewGateway registers a provider for every backend that has credentials in
// cfg.
func NewGateway(cfg config.LLMConfig) Gateway {
	g := &gateway{
		providers:       make(map[string]Provider),
		defaultProvider: cfg.DefaultProvider,
		defaultModel:    cfg.DefaultModel,
	}

	if cfg.AzureEndpoint != "" && cfg.AzureKey != "" {
		g.providers["azure"] = NewAzureOpenAIProvider(AzureOptions{
			Endpoint:   cfg.AzureEndpoint,
			APIKey:     cfg.AzureKey,
			APIVersion: cfg.AzureAPIVersion,
			Deployments: map[string]string{
				cfg.DefaultModel:   cfg.AzureDeployment,
				cfg.EmbeddingModel: cfg.AzureEmbedDeployment,
			},
		})
	}
	if cfg.OpenAIKey != "" {
		g.providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		g.providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey)
	}
	if cfg.OllamaURL != "" {
		g.providers["ollama"] = NewOllamaProvider(cfg.OllamaURL)
	}

	return g
}

// NewGatewayWithProviders builds a gateway over explicit providers.
func NewGatewayWithProviders(defaultProvider, defaultModel string, providers ...Provider) Gateway {
	g := &gateway{
		providers:       make(map[string]Provider, len(providers)),
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured (have %v)", name, g.names())
	}
	return p, nil
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(g.route(req.Provider))
	if err != nil {
		return nil, err
	}
	if req.Model == "" {
		req.Model = g.defaultModel
	}
	return p.ChatCompletion(ctx, req)
}

func (g *gateway) Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	p, err := g.Provider(g.route(req.Provider))
	if err != nil {
		return nil, err
	}
	return p.GenerateEmbedding(ctx, req)
}

func (g *gateway) route(name string) string {
	if name == "" {
		return g.defaultProvider
	}
	return name
}

func (g *gateway) names() []string {
	names := make([]string, 0, len(g.providers))
	for n := range g.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
