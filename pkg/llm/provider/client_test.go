package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/llm/provider"
)

type countingRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *countingRecorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[name]++
}

func (r *countingRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		recorder *countingRecorder
		messages []llm.Message
	)

	descriptorFor := func(url string) llm.Descriptor {
		return llm.Descriptor{
			Name:     "openrouter",
			Family:   llm.FamilyOpenRouter,
			Endpoint: url,
			APIKey:   "sk-or-test",
			Model:    "test-model",
			Referer:  "http://localhost:3000",
			Title:    "Food Assistant",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		recorder = &countingRecorder{}
		messages = []llm.Message{
			llm.NewMessage(llm.RoleSystem, "system"),
			llm.NewMessage(llm.RoleUser, "Can I make pasta with tomatoes?"),
		}
	})

	It("posts the payload with provider headers and returns the reply", func() {
		var gotHeaders http.Header
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotHeaders = r.Header.Clone()
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotBody)
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Try aglio e olio"}}]}`))
		}))
		defer server.Close()

		client := provider.NewClient(provider.WithRecorder(recorder))
		reply, err := client.Send(ctx, descriptorFor(server.URL), messages)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Try aglio e olio"))

		Expect(gotHeaders.Get("Authorization")).To(Equal("Bearer sk-or-test"))
		Expect(gotHeaders.Get("X-Title")).To(Equal("Food Assistant"))
		Expect(gotBody).To(HaveKeyWithValue("model", "test-model"))
		Expect(gotBody["messages"]).To(HaveLen(2))
		Expect(recorder.count("openrouter")).To(Equal(1))
	})

	It("wraps non-2xx responses in RequestError without recording usage", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
		}))
		defer server.Close()

		client := provider.NewClient(provider.WithRecorder(recorder))
		_, err := client.Send(ctx, descriptorFor(server.URL), messages)

		var reqErr *provider.RequestError
		Expect(errors.As(err, &reqErr)).To(BeTrue())
		Expect(reqErr.Provider).To(Equal("openrouter"))

		var statusErr *provider.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(recorder.count("openrouter")).To(BeZero())
	})

	It("wraps empty replies in RequestError", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
		}))
		defer server.Close()

		client := provider.NewClient(provider.WithRecorder(recorder))
		_, err := client.Send(ctx, descriptorFor(server.URL), messages)

		var empty *llm.EmptyReplyError
		Expect(errors.As(err, &empty)).To(BeTrue())
		Expect(recorder.count("openrouter")).To(BeZero())
	})

	It("fails with RequestError when the upstream exceeds the timeout", func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := provider.NewClient(
			provider.WithRecorder(recorder),
			provider.WithTimeout(50*time.Millisecond),
		)
		_, err := client.Send(ctx, descriptorFor(server.URL), messages)

		var reqErr *provider.RequestError
		Expect(errors.As(err, &reqErr)).To(BeTrue())
		Expect(recorder.count("openrouter")).To(BeZero())
	})

	It("fails with RequestError on transport errors", func() {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client := provider.NewClient()
		_, err := client.Send(ctx, descriptorFor(url), messages)

		var reqErr *provider.RequestError
		Expect(errors.As(err, &reqErr)).To(BeTrue())
	})

	It("uses a 30 second default timeout", func() {
		Expect(provider.DefaultTimeout).To(Equal(30 * time.Second))
	})
})

var _ = Describe("New", func() {
	It("returns a provider for each supported family", func() {
		for _, f := range []llm.Family{llm.FamilyOpenRouter, llm.FamilyHuggingFace} {
			p, err := provider.New(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Family()).To(Equal(f))
		}
	})

	It("rejects the unknown family", func() {
		_, err := provider.New(llm.FamilyUnknown)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Selector", func() {
	It("requires at least one provider", func() {
		_, err := provider.NewSelector(nil)
		Expect(err).To(HaveOccurred())
	})

	It("always returns the first configured provider", func() {
		s, err := provider.NewSelector([]llm.Descriptor{
			{Name: "openrouter", Family: llm.FamilyOpenRouter},
			{Name: "huggingface", Family: llm.FamilyHuggingFace},
		})
		Expect(err).NotTo(HaveOccurred())

		for rep := 0; rep < 3; rep++ {
			Expect(s.Available().Name).To(Equal("openrouter"))
		}
		Expect(s.All()).To(HaveLen(2))
	})
})
