package vmap_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/vmap"
)

var _ = Describe("Map", func() {
	It("returns a miss for an absent key without creating it", func() {
		m := vmap.New(8)
		_, ok := m.Get(loc.New(1, 2, 3), false)
		Expect(ok).To(BeFalse())
		Expect(m.Len()).To(Equal(0))
	})

	It("round trips a value through Set/Get", func() {
		m := vmap.New(8)
		key := loc.New(5, -5, 5)
		m.Set(key, 42)

		v, ok := m.Get(key, false)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(42))
	})

	It("removes a key and forgets its value", func() {
		m := vmap.New(8)
		key := loc.New(1, 1, 1)
		m.Set(key, "hello")

		v, ok := m.Remove(key)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("hello"))

		_, ok = m.Get(key, false)
		Expect(ok).To(BeFalse())
	})

	It("never shrinks below its configured minimum size", func() {
		m := vmap.New(4)
		for i := 0; i < 200; i++ {
			m.Set(loc.New(loc.Coord(i), 0, 0), i)
		}
		for i := 0; i < 200; i++ {
			m.Remove(loc.New(loc.Coord(i), 0, 0))
		}
		Expect(m.Size()).To(BeNumerically(">=", uint32(4)))
	})

	It("handles 10,000 random locations with exact round trips (S7)", func() {
		m := vmap.New(16)
		type kv struct {
			key loc.Location
			val int
		}
		entries := make([]kv, 0, 10000)
		seen := map[loc.Location]bool{}

		for len(entries) < 10000 {
			key := loc.New(
				loc.Coord(rand.Int63()%1_000_000-500_000),
				loc.Coord(rand.Int63()%1_000_000-500_000),
				loc.Coord(rand.Int63()%1_000_000-500_000),
			)
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, kv{key, rand.Int()})
		}

		for _, e := range entries {
			m.Set(e.key, e.val)
		}

		for _, e := range entries {
			v, ok := m.Get(e.key, false)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(e.val))
		}

		removed := entries[:5000]
		kept := entries[5000:]
		for _, e := range removed {
			_, ok := m.Remove(e.key)
			Expect(ok).To(BeTrue())
		}

		startResizes := m.Resizes()

		for _, e := range removed {
			_, ok := m.Get(e.key, false)
			Expect(ok).To(BeFalse())
		}
		for _, e := range kept {
			v, ok := m.Get(e.key, false)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(e.val))
		}

		Expect(startResizes).To(BeNumerically(">=", uint32(1)))
	})
})
