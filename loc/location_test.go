package loc_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/redpile/loc"
)

var _ = Describe("Location", func() {
	Describe("Adjacent", func() {
		It("moves one step in the given direction", func() {
			origin := loc.New(0, 0, 0)
			Expect(origin.Adjacent(loc.North)).To(Equal(loc.New(0, 0, -1)))
			Expect(origin.Adjacent(loc.South)).To(Equal(loc.New(0, 0, 1)))
			Expect(origin.Adjacent(loc.East)).To(Equal(loc.New(1, 0, 0)))
			Expect(origin.Adjacent(loc.West)).To(Equal(loc.New(-1, 0, 0)))
			Expect(origin.Adjacent(loc.Up)).To(Equal(loc.New(0, 1, 0)))
			Expect(origin.Adjacent(loc.Down)).To(Equal(loc.New(0, -1, 0)))
		})
	})

	Describe("Hash", func() {
		It("always lands inside [0, mod)", func() {
			for i := 0; i < 1000; i++ {
				l := loc.New(
					loc.Coord(rand.Int63()-rand.Int63()),
					loc.Coord(rand.Int63()-rand.Int63()),
					loc.Coord(rand.Int63()-rand.Int63()),
				)
				h := loc.Hash(l, 1024)
				Expect(h).To(BeNumerically("<", 1024))
			}
		})

		It("panics on a non-power-of-two mod", func() {
			Expect(func() { loc.Hash(loc.New(0, 0, 0), 100) }).To(Panic())
		})
	})
})

var _ = Describe("Direction", func() {
	It("inverts to its own inverse", func() {
		for d := loc.North; d <= loc.Down; d++ {
			Expect(d.Invert().Invert()).To(Equal(d))
		}
	})

	It("round-trips Right then Left for horizontal directions", func() {
		for _, d := range []loc.Direction{loc.North, loc.South, loc.East, loc.West} {
			Expect(d.Right().Left()).To(Equal(d))
		}
	})

	It("panics calling Right/Left on Up or Down", func() {
		Expect(func() { loc.Up.Right() }).To(Panic())
		Expect(func() { loc.Down.Left() }).To(Panic())
	})

	It("parses names case-insensitively", func() {
		d, ok := loc.ParseDirection("north")
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal(loc.North))

		_, ok = loc.ParseDirection("northwest")
		Expect(ok).To(BeFalse())
	})

	DescribeTable("relative movement resolves against a facing direction",
		func(facing loc.Direction, move loc.Movement, want loc.Direction) {
			Expect(move.Resolve(facing)).To(Equal(want))
		},
		Entry("forwards keeps facing", loc.North, loc.Forwards, loc.North),
		Entry("behind inverts", loc.North, loc.Behind, loc.South),
		Entry("left of north", loc.North, loc.LeftOf, loc.West),
		Entry("right of north", loc.North, loc.RightOf, loc.East),
	)
})
