package chat_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/papercomputeco/larder/pkg/chat"
	"github.com/papercomputeco/larder/pkg/conversation"
	"github.com/papercomputeco/larder/pkg/eventstream"
	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/llm/provider"
	"github.com/papercomputeco/larder/pkg/usage"
)

type fixedProvider struct {
	d llm.Descriptor
}

func (p fixedProvider) Available() llm.Descriptor { return p.d }

type fakeSender struct {
	mu      sync.Mutex
	windows [][]llm.Message
	reply   string
	err     error
}

func (s *fakeSender) Send(_ context.Context, _ llm.Descriptor, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append(s.windows, messages)
	return s.reply, s.err
}

func (s *fakeSender) lastWindow() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[len(s.windows)-1]
}

type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.TurnResolvedEvent
	err    error
}

func (p *capturePublisher) PublishTurn(_ context.Context, e *eventstream.TurnResolvedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

var _ = Describe("Assistant", func() {
	var (
		ctx        context.Context
		store      *conversation.Store
		descriptor llm.Descriptor
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = conversation.NewStore()
		descriptor = llm.Descriptor{
			Name:   "openrouter",
			Family: llm.FamilyOpenRouter,
			APIKey: "sk-or-test",
			Model:  "test-model",
			Limit:  llm.UsageLimit{Window: llm.WindowDaily, Max: 100},
		}
	})

	Describe("New", func() {
		It("requires a store, a provider source and a sender", func() {
			_, err := chat.New(chat.Config{})
			Expect(err).To(HaveOccurred())

			_, err = chat.New(chat.Config{Store: store})
			Expect(err).To(HaveOccurred())

			_, err = chat.New(chat.Config{Store: store, Providers: fixedProvider{descriptor}})
			Expect(err).To(HaveOccurred())

			_, err = chat.New(chat.Config{Store: store, Providers: fixedProvider{descriptor}, Sender: &fakeSender{}})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("with a fake sender", func() {
		var (
			sender    *fakeSender
			publisher *capturePublisher
			assistant *chat.Assistant
		)

		BeforeEach(func() {
			sender = &fakeSender{reply: "ok"}
			publisher = &capturePublisher{}

			var err error
			assistant, err = chat.New(chat.Config{
				Store:     store,
				Providers: fixedProvider{descriptor},
				Sender:    sender,
				Publisher: publisher,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a blank message without touching the history", func() {
			_, err := assistant.Handle(ctx, "   ")

			var verr *chat.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Field).To(Equal("message"))
			Expect(store.Len()).To(BeZero())
			Expect(sender.windows).To(BeEmpty())
		})

		It("always sends exactly one leading system turn", func() {
			for rep := 0; rep < 10; rep++ {
				_, err := assistant.Handle(ctx, "hello")
				Expect(err).NotTo(HaveOccurred())

				window := sender.lastWindow()
				Expect(window[0].Role).To(Equal(llm.RoleSystem))

				systemTurns := 0
				for _, m := range window {
					if m.Role == llm.RoleSystem {
						systemTurns++
					}
				}
				Expect(systemTurns).To(Equal(1))
			}
		})

		It("bounds the window to the most recent turns including the new message", func() {
			for rep := 0; rep < 5; rep++ {
				_, err := assistant.Handle(ctx, "hello")
				Expect(err).NotTo(HaveOccurred())
			}
			_, err := assistant.Handle(ctx, "latest question")
			Expect(err).NotTo(HaveOccurred())

			window := sender.lastWindow()
			Expect(window).To(HaveLen(chat.WindowSize + 1))
			Expect(window[len(window)-1]).To(Equal(llm.NewMessage(llm.RoleUser, "latest question")))
		})

		DescribeTable("resolves every provider failure with one assistant turn",
			func(failure error, text string, expected chat.Category) {
				sender.err = failure

				reply, err := assistant.Handle(ctx, text)
				Expect(err).NotTo(HaveOccurred())
				Expect(reply.Fallback).To(BeTrue())
				Expect(reply.Category).To(Equal(expected))
				Expect(reply.Text).NotTo(BeEmpty())

				history := assistant.History(chat.HistorySize)
				Expect(history).To(HaveLen(2))
				Expect(history[0]).To(Equal(llm.NewMessage(llm.RoleUser, text)))
				Expect(history[1]).To(Equal(llm.NewMessage(llm.RoleAssistant, reply.Text)))
			},
			Entry("timeout", &provider.RequestError{Provider: "openrouter", Err: context.DeadlineExceeded}, "any recipe?", chat.CategoryRecipe),
			Entry("empty reply", &provider.RequestError{Provider: "openrouter", Err: &llm.EmptyReplyError{Provider: "openrouter"}}, "when does it expire", chat.CategoryStorage),
			Entry("malformed response", &provider.RequestError{Provider: "openrouter", Err: &llm.MalformedResponseError{Provider: "openrouter", Reason: "no choices"}}, "what to buy", chat.CategoryShopping),
			Entry("anything else", errors.New("boom"), "hi", chat.CategoryGeneric),
		)

		It("publishes one event per resolved request", func() {
			_, err := assistant.Handle(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())

			sender.err = errors.New("down")
			_, err = assistant.Handle(ctx, "how do I cook beans")
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.events).To(HaveLen(2))
			Expect(publisher.events[0].Turn.Fallback).To(BeFalse())
			Expect(publisher.events[0].Source.Provider).To(Equal("openrouter"))
			Expect(publisher.events[1].Turn.Fallback).To(BeTrue())
			Expect(publisher.events[1].Turn.FallbackCategory).To(Equal(string(chat.CategoryRecipe)))
		})

		It("ignores publish failures", func() {
			publisher.err = errors.New("broker down")

			reply, err := assistant.Handle(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("ok"))
		})

		It("clears the conversation", func() {
			_, err := assistant.Handle(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())

			Expect(assistant.Clear()).To(Equal(conversation.ClearedMessage))
			Expect(assistant.History(chat.HistorySize)).To(BeEmpty())
		})

		It("keeps each user turn adjacent to its reply under concurrent requests", func() {
			var wg sync.WaitGroup
			for rep := 0; rep < 20; rep++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := assistant.Handle(ctx, "hello")
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			history := assistant.History(100)
			Expect(history).To(HaveLen(40))
			for i := 0; i < len(history); i += 2 {
				Expect(history[i].Role).To(Equal(llm.RoleUser))
				Expect(history[i+1].Role).To(Equal(llm.RoleAssistant))
			}
		})
	})

	Describe("tracing", func() {
		It("records one span per request with the outcome", func() {
			spans := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

			sender := &fakeSender{err: errors.New("upstream down")}
			assistant, err := chat.New(chat.Config{
				Store:     store,
				Providers: fixedProvider{descriptor},
				Sender:    sender,
				Tracer:    tp.Tracer("test"),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = assistant.Handle(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())

			ended := spans.Ended()
			Expect(ended).To(HaveLen(1))
			Expect(ended[0].Name()).To(Equal("chat.handle"))
			Expect(ended[0].Status().Code).To(Equal(codes.Error))
			Expect(ended[0].Attributes()).To(ContainElements(
				attribute.String("larder.provider", "openrouter"),
				attribute.Bool("larder.fallback", true),
			))
		})
	})

	Context("against an OpenRouter-compatible server", func() {
		var (
			recorder *usage.Recorder
			server   *httptest.Server
		)

		newAssistant := func(opts ...provider.ClientOption) *chat.Assistant {
			descriptor.Endpoint = server.URL
			recorder = usage.NewRecorder([]llm.Descriptor{descriptor})

			client := provider.NewClient(append(opts, provider.WithRecorder(recorder))...)
			selector, err := provider.NewSelector([]llm.Descriptor{descriptor})
			Expect(err).NotTo(HaveOccurred())

			a, err := chat.New(chat.Config{
				Store:     store,
				Providers: selector,
				Sender:    client,
			})
			Expect(err).NotTo(HaveOccurred())
			return a
		}

		AfterEach(func() {
			server.Close()
		})

		It("returns the provider reply and records usage", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Try aglio e olio"}}]}`))
			}))
			assistant := newAssistant()

			reply, err := assistant.Handle(ctx, "Can I make pasta with tomatoes?")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Try aglio e olio"))
			Expect(reply.Fallback).To(BeFalse())
			Expect(store.Len()).To(Equal(2))
			Expect(recorder.Snapshot()["openrouter"].WindowUsed).To(Equal(1))
		})

		It("falls back to the storage reply on timeout without recording usage", func() {
			server = httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			assistant := newAssistant(provider.WithTimeout(50 * time.Millisecond))

			reply, err := assistant.Handle(ctx, "How long does milk last?")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Fallback).To(BeTrue())
			Expect(reply.Text).To(Equal(chat.DefaultRules[1].Reply))
			Expect(store.Len()).To(Equal(2))
			Expect(recorder.Snapshot()["openrouter"].WindowUsed).To(BeZero())
		})

		It("never decreases usage across mixed outcomes", func() {
			fail := false
			var mu sync.Mutex
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				mu.Lock()
				defer mu.Unlock()
				if fail {
					w.WriteHeader(http.StatusServiceUnavailable)
				} else {
					_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"sure"}}]}`))
				}
				fail = !fail
			}))
			assistant := newAssistant()

			previous := 0
			for i := 0; i < 6; i++ {
				_, err := assistant.Handle(ctx, "hello")
				Expect(err).NotTo(HaveOccurred())

				used := recorder.Snapshot()["openrouter"].WindowUsed
				Expect(used).To(BeNumerically(">=", previous))
				if i%2 == 1 {
					Expect(used).To(Equal(previous))
				}
				previous = used
			}
			Expect(previous).To(Equal(3))
		})
	})
})
