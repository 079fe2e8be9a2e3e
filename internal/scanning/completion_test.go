package scanning

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("Parser", func() {
	var (
		completer *mockCompleter
		metrics   *Metrics
		cfg       ParserConfig
		ctx       context.Context
		reply     string
		err       error
	)

	BeforeEach(func() {
		completer = &mockCompleter{}
		metrics = NewMetrics(prometheus.NewRegistry())
		cfg = ParserConfig{MaxRetries: 2, RetryDelay: time.Millisecond, Timeout: time.Second}
		ctx = context.Background()
	})

	JustBeforeEach(func() {
		reply, err = NewParser(completer, cfg, metrics).Parse(ctx, "MILK 3.50")
	})

	When("the first attempt succeeds", func() {
		BeforeEach(func() {
			completer.replies = []string{milkReply}
		})

		It("should return the reply", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal(milkReply))
			Expect(completer.calls()).To(Equal(1))
		})

		It("should send the extraction prompt", func() {
			Expect(completer.prompts[0]).To(Equal(BuildInvoicePrompt("MILK 3.50")))
			Expect(completer.maxTokens[0]).To(Equal(DefaultMaxTokens))
		})
	})

	When("two attempts fail and the third succeeds", func() {
		BeforeEach(func() {
			completer.errs = []error{errors.New("boom"), errors.New("boom")}
			completer.replies = []string{milkReply}
		})

		It("should succeed after three calls", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal(milkReply))
			Expect(completer.calls()).To(Equal(3))
			Expect(testutil.ToFloat64(metrics.completionAttempts.WithLabelValues("error"))).To(Equal(2.0))
			Expect(testutil.ToFloat64(metrics.completionAttempts.WithLabelValues("ok"))).To(Equal(1.0))
		})
	})

	When("every attempt fails", func() {
		BeforeEach(func() {
			completer.errs = []error{errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")}
		})

		It("should give up after three calls with a transient failure", func() {
			Expect(completer.calls()).To(Equal(3))
			var scanErr *ScanError
			Expect(errors.As(err, &scanErr)).To(BeTrue())
			Expect(scanErr.Kind).To(Equal(KindTransientFailure))
		})
	})

	When("retries are disabled", func() {
		BeforeEach(func() {
			cfg.MaxRetries = 0
			completer.errs = []error{errors.New("a")}
		})

		It("should call once", func() {
			Expect(err).To(HaveOccurred())
			Expect(completer.calls()).To(Equal(1))
		})
	})

	When("the model answers unknown", func() {
		BeforeEach(func() {
			completer.replies = []string{" Unknown "}
		})

		It("should be not_an_invoice without retrying", func() {
			var scanErr *ScanError
			Expect(errors.As(err, &scanErr)).To(BeTrue())
			Expect(scanErr.Kind).To(Equal(KindNotAnInvoice))
			Expect(completer.calls()).To(Equal(1))
		})
	})

	When("the caller's context is already canceled", func() {
		BeforeEach(func() {
			canceled, cancel := context.WithCancel(context.Background())
			cancel()
			ctx = canceled
			completer.errs = []error{context.Canceled, context.Canceled, context.Canceled}
		})

		It("should stop after the first attempt", func() {
			Expect(err).To(HaveOccurred())
			Expect(completer.calls()).To(Equal(1))
		})
	})

	Describe("ParserConfig", func() {
		It("should fill in defaults", func() {
			c := ParserConfig{MaxRetries: -1}.withDefaults()
			Expect(c.MaxTokens).To(Equal(DefaultMaxTokens))
			Expect(c.Timeout).To(Equal(DefaultCompletionTimeout))
			Expect(c.MaxRetries).To(BeZero())
		})

		It("should default to two retries two seconds apart", func() {
			c := DefaultParserConfig()
			Expect(c.MaxRetries).To(Equal(2))
			Expect(c.RetryDelay).To(Equal(2 * time.Second))
		})
	})
})
