package llm

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// MockReply is one scripted answer for MockProvider. Content is the model
// text, decoded against the request schema like a real reply.
type MockReply struct {
	Content string
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and keeps every request
// it was sent, images included.
type MockProvider struct {
	mu       sync.Mutex
	script   []MockReply
	requests []Request
}

// NewMockProvider returns a provider that answers with replies in order.
func NewMockProvider(replies ...MockReply) *MockProvider {
	return &MockProvider{script: replies}
}

func (m *MockProvider) Model() string { return "mock" }

// Ask records req and pops the next reply. An empty script answers with
// KindUnavailable.
func (m *MockProvider) Ask(_ context.Context, req Request) (*Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req.Images = cloneImages(req.Images)
	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return nil, &Error{Kind: KindUnavailable, Provider: "mock", Err: errors.New("no scripted reply")}
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}

	content, err := decodeReply("mock", req.Schema, next.Content)
	if err != nil {
		return nil, err
	}
	return &Reply{Content: content, Usage: next.Usage, Model: "mock"}, nil
}

// Requests returns the requests received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Images returns every image received, in the order sent.
func (m *MockProvider) Images() []Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Image
	for _, r := range m.requests {
		out = append(out, r.Images...)
	}
	return out
}

func cloneImages(imgs []Image) []Image {
	if imgs == nil {
		return nil
	}
	out := make([]Image, len(imgs))
	for i, img := range imgs {
		out[i] = Image{Data: slices.Clone(img.Data), MIMEType: img.MIMEType}
	}
	return out
}
