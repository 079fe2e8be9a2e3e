package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("Extractor", func() {
	var (
		detector *mockDetector
		metrics  *Metrics
		result   OCRResult
		err      error
	)

	BeforeEach(func() {
		detector = &mockDetector{}
		metrics = NewMetrics(prometheus.NewRegistry())
	})

	JustBeforeEach(func() {
		result, err = NewExtractor(detector, metrics).Extract(context.Background(), []byte("png"))
	})

	When("document detection finds text", func() {
		BeforeEach(func() {
			detector.documentText = "MILK 3.50"
		})

		It("should return it without falling back", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("MILK 3.50"))
			Expect(detector.documentCalls).To(Equal(1))
			Expect(detector.textCalls).To(BeZero())
			Expect(testutil.ToFloat64(metrics.ocrFallbacksTotal)).To(BeZero())
		})
	})

	When("document detection finds only whitespace", func() {
		BeforeEach(func() {
			detector.documentText = " \n\t "
			detector.text = "TOTAL 12.00"
		})

		It("should fall back to text detection exactly once", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("TOTAL 12.00"))
			Expect(detector.documentCalls).To(Equal(1))
			Expect(detector.textCalls).To(Equal(1))
			Expect(testutil.ToFloat64(metrics.ocrFallbacksTotal)).To(Equal(1.0))
		})
	})

	When("neither detection finds text", func() {
		It("should be unreadable", func() {
			var scanErr *ScanError
			Expect(errors.As(err, &scanErr)).To(BeTrue())
			Expect(scanErr.Kind).To(Equal(KindUnreadable))
			Expect(scanErr.Detail).To(Equal("No text could be detected"))
			Expect(detector.calls()).To(Equal(2))
		})
	})

	When("the OCR service fails", func() {
		BeforeEach(func() {
			detector.documentErr = errors.New("quota exceeded")
		})

		It("should be a transient failure without retrying", func() {
			var scanErr *ScanError
			Expect(errors.As(err, &scanErr)).To(BeTrue())
			Expect(scanErr.Kind).To(Equal(KindTransientFailure))
			Expect(detector.calls()).To(Equal(1))
		})
	})

	When("the fallback fails", func() {
		BeforeEach(func() {
			detector.textErr = errors.New("unavailable")
		})

		It("should be a transient failure", func() {
			var scanErr *ScanError
			Expect(errors.As(err, &scanErr)).To(BeTrue())
			Expect(scanErr.Kind).To(Equal(KindTransientFailure))
		})
	})
})
