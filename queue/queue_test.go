package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/queue"
	"github.com/sarchlab/redpile/registry"
)

func item(src loc.Location, target loc.Location, tick uint64, kind uint32, v int64) *queue.Item {
	return &queue.Item{
		Kind:   kind,
		Tick:   tick,
		Source: message.Source{Location: src},
		Target: target,
		Value:  registry.IntValue(v),
	}
}

var _ = Describe("Queue", func() {
	var q *queue.Queue
	a := loc.New(0, 0, 0)
	b := loc.New(1, 0, 0)
	c := loc.New(2, 0, 0)

	BeforeEach(func() {
		q = queue.New(true, true)
	})

	It("starts empty", func() {
		Expect(q.Len()).To(Equal(0))
	})

	It("keeps every item for one target contiguous, even when pushes interleave targets", func() {
		q.Push(item(a, b, 0, 1, 1))
		q.Push(item(a, c, 0, 1, 2))
		q.Push(item(a, b, 0, 1, 3))
		q.Push(item(a, c, 0, 1, 4))
		q.Push(item(a, b, 0, 1, 5))

		runs := map[loc.Location][]int{}
		items := q.Items()
		for i, it := range items {
			runs[it.Target] = append(runs[it.Target], i)
		}
		for target, positions := range runs {
			for i := 1; i < len(positions); i++ {
				Expect(positions[i]).To(Equal(positions[i-1]+1), "target %v not contiguous: %v", target, positions)
			}
		}
	})

	It("advances the target index to the next item when the head is removed", func() {
		i1 := item(a, b, 0, 1, 1)
		i2 := item(a, b, 0, 1, 2)
		q.Push(i1)
		q.Push(i2)

		found, remaining := q.FindByTargetAndTick(b, 0)
		Expect(found).NotTo(BeNil())
		Expect(remaining).To(Equal(2))

		q.Remove(i1) // i1 is the run's head; removing it advances the index to i2
		found, remaining = q.FindByTargetAndTick(b, 0)
		Expect(found).To(BeIdenticalTo(i2))
		Expect(remaining).To(Equal(1))

		q.Remove(i2)
		_, remaining = q.FindByTargetAndTick(b, 0)
		Expect(remaining).To(Equal(0))
	})

	It("finds an item by target and tick, reporting the remaining count in the run", func() {
		q.Push(item(a, b, 5, 1, 1))
		q.Push(item(a, b, 7, 1, 2))
		q.Push(item(a, b, 9, 1, 3))

		found, remaining := q.FindByTargetAndTick(b, 7)
		Expect(found).NotTo(BeNil())
		Expect(found.Tick).To(Equal(uint64(7)))
		// pushes splice after the run's head, so the run reads 5, 9, 7
		// and only tick 7 itself remains from the match on
		Expect(remaining).To(Equal(1))
	})

	It("reports no match for a tick that isn't queued", func() {
		q.Push(item(a, b, 5, 1, 1))
		found, _ := q.FindByTargetAndTick(b, 6)
		Expect(found).To(BeNil())
	})

	It("tests membership by value, not identity", func() {
		i1 := item(a, b, 5, 1, 42)
		q.Push(i1)

		Expect(q.Contains(*i1)).To(BeTrue())
		Expect(q.Contains(*item(a, b, 5, 1, 43))).To(BeFalse())
	})

	It("revokes every item from a single source in one call", func() {
		q.Push(item(a, b, 0, 1, 1))
		q.Push(item(c, b, 0, 1, 2))
		q.Push(item(a, c, 0, 1, 3))

		q.RemoveBySource(a)

		for _, it := range q.Items() {
			Expect(it.Source.Location).NotTo(Equal(a))
		}
		Expect(q.Len()).To(Equal(1))
	})

	It("merges another queue's items in, preserving their original source", func() {
		other := queue.New(true, true)
		other.Push(item(a, b, 0, 1, 1))
		other.Push(item(c, b, 0, 1, 2))

		merged := q.Merge(other)
		Expect(merged).To(Equal(2))
		Expect(q.Len()).To(Equal(2))

		sources := map[loc.Location]bool{}
		for _, it := range q.Items() {
			sources[it.Source.Location] = true
		}
		Expect(sources).To(HaveKey(a))
		Expect(sources).To(HaveKey(c))
	})
})
