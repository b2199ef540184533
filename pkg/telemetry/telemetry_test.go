package telemetry_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/telemetry"
	"github.com/papercomputeco/larder/pkg/usage"
)

var _ = Describe("Telemetry", func() {
	var (
		ctx     context.Context
		tmpDir  string
		metrics string
		traces  string
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()
		metrics = filepath.Join(tmpDir, "metrics.jsonl")
		traces = filepath.Join(tmpDir, "traces.jsonl")
	})

	It("requires a metrics file", func() {
		_, err := telemetry.New(ctx, telemetry.Config{})
		Expect(err).To(MatchError("metrics file is required"))
	})

	It("flushes usage counters on shutdown", func() {
		t, err := telemetry.New(ctx, telemetry.Config{MetricsFile: metrics, Interval: time.Hour, Version: "test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Tracer()).To(BeNil())

		recorder := usage.NewRecorder(
			[]llm.Descriptor{{Name: "openrouter", Limit: llm.UsageLimit{Window: llm.WindowDaily, Max: 100}}},
			usage.WithMeter(t.Meter()),
		)
		recorder.Record("openrouter")
		recorder.Record("openrouter")

		Expect(t.Shutdown(ctx)).To(Succeed())

		data, err := os.ReadFile(metrics)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("larder.provider.requests"))
		Expect(string(data)).To(ContainSubstring("openrouter"))
	})

	It("writes spans to the traces file", func() {
		t, err := telemetry.New(ctx, telemetry.Config{MetricsFile: metrics, TracesFile: traces})
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Tracer()).NotTo(BeNil())

		_, span := t.Tracer().Start(ctx, "chat.handle")
		span.End()

		Expect(t.Shutdown(ctx)).To(Succeed())

		data, err := os.ReadFile(traces)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("chat.handle"))
	})

	It("creates missing directories", func() {
		nested := filepath.Join(tmpDir, "a", "b", "metrics.jsonl")
		t, err := telemetry.New(ctx, telemetry.Config{MetricsFile: nested})
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Shutdown(ctx)).To(Succeed())

		Expect(filepath.Join(tmpDir, "a", "b")).To(BeADirectory())
	})
})
