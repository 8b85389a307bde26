// Package llmtest provides an in-memory LLM that records every request.
package llmtest

import (
	"context"
	"sync"

	"github.com/bitrise-io/bitrise-plugins-ai-research/llm"
)

// Recorder answers every prompt with Content (or Err) and keeps the requests
type Recorder struct {
	Content string
	Err     error

	mu       sync.Mutex
	requests []llm.Request
}

var _ llm.LLM = (*Recorder)(nil)

// Prompt implements llm.LLM
func (r *Recorder) Prompt(_ context.Context, req llm.Request) llm.Response {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	if r.Err != nil {
		return llm.Response{Error: r.Err}
	}
	return llm.Response{Content: r.Content}
}

// Requests returns a copy of the recorded requests
func (r *Recorder) Requests() []llm.Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]llm.Request(nil), r.requests...)
}

// Calls returns how many prompts were sent
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.requests)
}
