package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildInvoicePrompt", func() {
	It("should embed the cleaned text and every category", func() {
		prompt := BuildInvoicePrompt("MILK 3.50")
		Expect(prompt).To(ContainSubstring("MILK 3.50"))
		for _, name := range CategoryNames() {
			Expect(prompt).To(ContainSubstring(name))
		}
		Expect(prompt).To(ContainSubstring(`"unknown"`))
	})
})

var _ = Describe("isUnknownReply", func() {
	DescribeTable("recognizing the not-an-invoice signal",
		func(reply string, expected bool) {
			Expect(isUnknownReply(reply)).To(Equal(expected))
		},
		Entry("bare", "unknown", true),
		Entry("quoted", `"unknown"`, true),
		Entry("capitalized with period", "Unknown.", true),
		Entry("padded", "  unknown\n", true),
		Entry("empty", "", true),
		Entry("JSON", `{"expense": {}}`, false),
		Entry("sentence", "unknown supplier", false),
	)
})

var _ = Describe("CanonicalCategory", func() {
	DescribeTable("mapping onto the closed set",
		func(input string, expected Category) {
			Expect(CanonicalCategory(input)).To(Equal(expected))
		},
		Entry("exact", "Office Supplies", CategoryOfficeSupplies),
		Entry("lowercase", "food & beverages", CategoryFoodBeverages),
		Entry("synonym", "Hotel", CategoryAccommodation),
		Entry("synonym with spaces", "  taxi ", CategoryTransportation),
		Entry("unknown", "Electronics", CategoryOther),
		Entry("empty", "", CategoryOther),
	)
})
