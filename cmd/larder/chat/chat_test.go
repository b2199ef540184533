package chatcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/larder/api"
	"github.com/papercomputeco/larder/pkg/client"
	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/usage"
)

type fakeServer struct {
	mu       sync.Mutex
	messages []string
	cleared  int
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.messages = append(f.messages, req.Message)
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(api.ChatResponse{Success: true, Response: "Use fresh basil."})
	})
	mux.HandleFunc("POST /conversation/clear", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		f.cleared++
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(api.MessageResponse{Success: true, Message: "Conversation cleared!"})
	})
	mux.HandleFunc("GET /usage", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"openrouter": usage.Counter{Window: "daily", WindowUsed: 4, WindowLimit: 100},
		})
	})
	mux.HandleFunc("GET /conversation", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(api.HistoryResponse{Success: true, History: []llm.Message{
			llm.NewMessage(llm.RoleUser, "what goes with tomato?"),
			llm.NewMessage(llm.RoleAssistant, "Use fresh basil."),
		}})
	})
	return mux
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --api-target flag with default value", func() {
		cmd := NewChatCmd()
		flag := cmd.Flags().Lookup("api-target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("a"))
		Expect(flag.DefValue).To(Equal("http://localhost:3000"))
	})
})

var _ = Describe("chat session", func() {
	var (
		fake   *fakeServer
		server *httptest.Server
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		fake = &fakeServer{}
		server = httptest.NewServer(fake.handler())
		DeferCleanup(server.Close)
		out = &bytes.Buffer{}
	})

	run := func(lines ...string) {
		c := &chatCommander{
			apiTarget: server.URL,
			in:        strings.NewReader(strings.Join(lines, "\n") + "\n"),
			out:       out,
			client:    client.New(server.URL),
		}
		Expect(c.run(context.Background())).To(Succeed())
	}

	It("sends messages and prints replies", func() {
		run("what goes with tomato?", "", "/exit", "never sent")

		Expect(fake.messages).To(Equal([]string{"what goes with tomato?"}))
		Expect(out.String()).To(ContainSubstring("Use fresh basil."))
	})

	It("clears the conversation", func() {
		run("/clear")

		Expect(fake.cleared).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("Conversation cleared!"))
	})

	It("shows usage counters", func() {
		run("/usage")
		Expect(out.String()).To(ContainSubstring("4/100"))
	})

	It("shows the history", func() {
		run("/history")
		Expect(out.String()).To(ContainSubstring("what goes with tomato?"))
		Expect(out.String()).To(ContainSubstring("Use fresh basil."))
	})

	It("reports unknown commands without sending them", func() {
		run("/nope")
		Expect(fake.messages).To(BeEmpty())
		Expect(out.String()).To(ContainSubstring(`unknown command "/nope"`))
	})

	It("keeps going when the server is unreachable", func() {
		server.Close()
		run("hello", "/exit")
		Expect(out.String()).To(ContainSubstring("sending request"))
	})
})
