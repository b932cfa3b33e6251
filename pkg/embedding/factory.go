package embedding

// NewEmbedder selects the embedder variant. Provider "openai" with an API
// key yields the model-backed embedder; anything else yields the
// deterministic heuristic. The choice is made once, here: callers that want
// degradation decide it explicitly by what they pass in.
func NewEmbedder(provider, model, apiKey string) Embedder {
	if provider == "openai" && apiKey != "" {
		return NewOpenAIEmbedder(apiKey, model)
	}
	return NewHeuristicEmbedder()
}
