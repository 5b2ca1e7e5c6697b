package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Confidence", func() {
	It("returns 0 when nothing was extracted", func() {
		Expect(Confidence(0, 0)).To(Equal(0))
	})

	It("takes the larger of the table and text scores", func() {
		// tables=2 -> 90, blocks=3 -> 76
		Expect(Confidence(2, 3)).To(Equal(90))
	})

	It("lets the text score win when it is larger", func() {
		// tables=1 -> 85, blocks=10 -> 90
		Expect(Confidence(1, 10)).To(Equal(90))
	})

	It("applies the table base constant even with zero tables", func() {
		// tables=0 -> 80, blocks=1 -> 72
		Expect(Confidence(0, 1)).To(Equal(80))
	})

	It("caps both scores at 100", func() {
		Expect(Confidence(10, 50)).To(Equal(100))
	})
})
