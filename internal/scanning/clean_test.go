package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CleanText", func() {
	DescribeTable("collapsing whitespace",
		func(input, expected string) {
			Expect(CleanText(input)).To(Equal(expected))
		},
		Entry("plain text", "MILK 3.50", "MILK 3.50"),
		Entry("line breaks", "MILK\r\n3.50\rTOTAL\n3.50", "MILK 3.50 TOTAL 3.50"),
		Entry("runs of spaces and tabs", "MILK  \t  3.50", "MILK 3.50"),
		Entry("leading and trailing whitespace", "\n\n  MILK  \n", "MILK"),
		Entry("non-breaking and vertical space", "MILK 3.50\vX Y", "MILK 3.50 X Y"),
		Entry("whitespace only", " \r\n\t ", ""),
		Entry("empty", "", ""),
	)

	It("should be idempotent", func() {
		inputs := []string{"A\r\n\r\nB   C", "  x\ty\n", "already clean"}
		for _, input := range inputs {
			once := CleanText(input)
			Expect(CleanText(once)).To(Equal(once))
		}
	})
})
