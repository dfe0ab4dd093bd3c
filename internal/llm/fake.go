package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by Fake once every scripted reply is used.
var ErrScriptExhausted = errors.New("fake llm: script exhausted")

// Reply is one scripted Fake answer.
type Reply struct {
	Text string
	Err  error
}

// Fake is a scripted Client that records every request.
type Fake struct {
	mu     sync.Mutex
	script []Reply
	calls  []Request
	Label  string
}

// NewFake returns a Fake that answers with texts in order.
func NewFake(texts ...string) *Fake {
	f := &Fake{}
	for _, t := range texts {
		f.script = append(f.script, Reply{Text: t})
	}
	return f
}

// Push appends replies to the script.
func (f *Fake) Push(replies ...Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, replies...)
	return f
}

// Name implements Client.
func (f *Fake) Name() string {
	if f.Label != "" {
		return f.Label
	}
	return "fake"
}

// Generate records req and returns the next scripted reply.
func (f *Fake) Generate(ctx context.Context, req Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(f.script) == 0 {
		return Response{}, ErrScriptExhausted
	}
	next := f.script[0]
	f.script = f.script[1:]
	if next.Err != nil {
		return Response{}, next.Err
	}
	return Response{Text: next.Text}, nil
}

// Calls returns a copy of the recorded requests.
func (f *Fake) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}
