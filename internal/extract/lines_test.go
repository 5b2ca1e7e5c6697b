package extract

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("StructureLines", func() {
	var (
		input string
		rows  []Row
	)

	JustBeforeEach(func() {
		rows = StructureLines("doc.pdf", input)
	})

	When("lines use the colon delimiter", func() {
		BeforeEach(func() {
			input = "Total: 100\nDate: 2024-01-15"
		})

		It("splits each line into field and value", func() {
			Expect(rows).To(Equal([]Row{
				{Source: "doc.pdf", Field: "Total", Value: "100"},
				{Source: "doc.pdf", Field: "Date", Value: "2024-01-15"},
			}))
		})
	})

	When("a line contains both equals and colon", func() {
		BeforeEach(func() {
			input = "A=B:C"
		})

		It("splits on the colon because it outranks equals", func() {
			Expect(rows).To(Equal([]Row{
				{Source: "doc.pdf", Field: "A=B", Value: "C"},
			}))
		})
	})

	When("a hyphen appears before a colon in the line", func() {
		BeforeEach(func() {
			input = "Date - 2024-01-01: note"
		})

		It("still splits on the colon, not the earlier hyphen", func() {
			Expect(rows).To(Equal([]Row{
				{Source: "doc.pdf", Field: "Date - 2024-01-01", Value: "note"},
			}))
		})
	})

	When("only a hyphen is present", func() {
		BeforeEach(func() {
			input = "Total: 100\nDate - 2024-01-01"
		})

		It("splits on the first hyphen occurrence only", func() {
			Expect(rows).To(Equal([]Row{
				{Source: "doc.pdf", Field: "Total", Value: "100"},
				{Source: "doc.pdf", Field: "Date", Value: "2024-01-01"},
			}))
		})
	})

	When("lines are tab separated", func() {
		BeforeEach(func() {
			input = "Amount\t42.75"
		})

		It("splits on the tab", func() {
			Expect(rows).To(Equal([]Row{
				{Source: "doc.pdf", Field: "Amount", Value: "42.75"},
			}))
		})
	})

	When("lines have no delimiter or empty parts", func() {
		BeforeEach(func() {
			input = "just some prose\nTotal:\n: 100\n   :   \nOK: yes"
		})

		It("discards them", func() {
			Expect(rows).To(Equal([]Row{
				{Source: "doc.pdf", Field: "OK", Value: "yes"},
			}))
		})
	})

	When("the same field repeats", func() {
		BeforeEach(func() {
			input = "Item: milk\nItem: bread"
		})

		It("keeps both rows in order", func() {
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Value).To(Equal("milk"))
			Expect(rows[1].Value).To(Equal("bread"))
		})
	})

	When("re-running over its own reconstructed output", func() {
		BeforeEach(func() {
			input = "Total: 100\nSubtotal: 90\nTax: 10"
		})

		It("is idempotent for colon-delimited lines", func() {
			var reconstructed []string
			for _, r := range rows {
				reconstructed = append(reconstructed, fmt.Sprintf("%s: %s", r.Field, r.Value))
			}
			again := StructureLines("doc.pdf", strings.Join(reconstructed, "\n"))
			Expect(again).To(Equal(rows))
		})
	})

	When("the input is empty", func() {
		BeforeEach(func() {
			input = ""
		})

		It("returns no rows", func() {
			Expect(rows).To(BeEmpty())
		})
	})
})
