package engine_test

import (
	"bytes"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/golang/mock/gomock"

	"github.com/sarchlab/redpile/engine"
	"github.com/sarchlab/redpile/host"
	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/registry"
)

var errFailingBehavior = errors.New("behavior host: simulated failure")

var allDirections = []loc.Direction{loc.North, loc.South, loc.East, loc.West, loc.Up, loc.Down}

var _ = Describe("Tick Scheduler", func() {
	var (
		reg    *registry.Registry
		origin = loc.New(0, 0, 0)
	)

	BeforeEach(func() {
		reg = registry.New()
		_, _ = reg.DefineType("AIR", nil, nil)
	})

	It("propagates a message to every neighbor with a one-tick delay, materializing them (S3)", func() {
		power, _ := reg.DefineMessageKind("POWER")

		reg.DefineBehavior("emit", power.Bit, behaviorFunc(func(ctx host.Context) {
			for _, d := range allDirections {
				ctx.Send(ctx.Node().Location.Adjacent(d), power.Bit, 1, registry.IntValue(15))
			}
		}))
		_, _ = reg.DefineType("TORCH", nil, []string{"emit"})

		w := engine.New(reg, funcHost{}, 4, nil)
		_, err := w.SetNode(origin, "TORCH")
		Expect(err).NotTo(HaveOccurred())

		_, ok := w.GetNode(origin.Adjacent(loc.North))
		Expect(ok).To(BeFalse(), "neighbor starts out vacant")

		advanced, err := w.RunTick(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(advanced).To(Equal(1))

		north, ok := w.GetNode(origin.Adjacent(loc.North))
		Expect(ok).To(BeTrue(), "neighbor materializes as a side effect of delivery")
		Expect(north.Type.Name).To(Equal("AIR"))

		// sent during tick 0 with delay 1 lands in bucket 1, which is
		// current once RunTick returns (w.ticks == 1) and so is visible
		// via MESSAGES instead of being discarded as stale.
		msgs := north.Messages.Messages(1)
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Kind).To(Equal(power.Bit))
		Expect(msgs[0].Value.Int).To(Equal(int64(15)))
		Expect(msgs[0].Source.Location).To(Equal(origin))
	})

	It("holds a delayed message until its target tick arrives (S4)", func() {
		power, _ := reg.DefineMessageKind("POWER")

		// records receipt in a field instead of re-sending, so the test
		// can tell "queued but not yet due" apart from "consumed as input".
		reg.DefineBehavior("listen", power.Bit, behaviorFunc(func(ctx host.Context) {
			if len(ctx.Inbox()) > 0 {
				ctx.SetField(0, registry.IntValue(1))
			}
		}))
		_, _ = reg.DefineType("WIRE", []registry.Field{{Name: "received", Type: registry.FieldInteger}}, []string{"listen"})

		fired := false
		reg.DefineBehavior("delayedEmit", power.Bit, behaviorFunc(func(ctx host.Context) {
			if fired {
				return
			}
			fired = true
			ctx.Send(ctx.Node().Location.Adjacent(loc.North), power.Bit, 2, registry.IntValue(1))
		}))
		_, _ = reg.DefineType("TORCH", nil, []string{"delayedEmit"})

		w := engine.New(reg, funcHost{}, 4, nil)
		_, err := w.SetNode(origin, "TORCH")
		Expect(err).NotTo(HaveOccurred())
		_, err = w.SetNode(origin.Adjacent(loc.North), "WIRE")
		Expect(err).NotTo(HaveOccurred())

		north, _ := w.GetNode(origin.Adjacent(loc.North))

		_, err = w.RunTick(1) // processes tick 0; send(delay 2) queues for tick 2, Δtick=1 once ticks reads 1
		Expect(err).NotTo(HaveOccurred())
		Expect(north.Messages.Messages(2)).To(HaveLen(1))
		Expect(north.Fields[0].Int).To(Equal(int64(0)))

		_, err = w.RunTick(1) // processes tick 1; still not due
		Expect(err).NotTo(HaveOccurred())
		Expect(north.Fields[0].Int).To(Equal(int64(0)))

		_, err = w.RunTick(1) // processes tick 2; the message becomes input and is consumed
		Expect(err).NotTo(HaveOccurred())
		Expect(north.Fields[0].Int).To(Equal(int64(1)))

		north.Fields[0] = registry.IntValue(0)
		_, err = w.RunTick(1) // processes tick 3; bucket for tick 2 was discarded, nothing left to consume
		Expect(err).NotTo(HaveOccurred())
		Expect(north.Fields[0].Int).To(Equal(int64(0)))
	})

	It("relocates a node via SYSTEM_MOVE (S5)", func() {
		moveOnce := false
		reg.DefineBehavior("stepNorth", registry.SystemMoveBit, behaviorFunc(func(ctx host.Context) {
			if moveOnce {
				return
			}
			moveOnce = true
			ctx.Move(loc.North)
		}))
		_, _ = reg.DefineType("PISTON", nil, []string{"stepNorth"})

		w := engine.New(reg, funcHost{}, 4, nil)
		_, err := w.SetNode(origin, "PISTON")
		Expect(err).NotTo(HaveOccurred())

		_, err = w.RunTick(1)
		Expect(err).NotTo(HaveOccurred())

		_, ok := w.GetNode(origin)
		Expect(ok).To(BeFalse())

		moved, ok := w.GetNode(loc.New(0, 0, -1))
		Expect(ok).To(BeTrue())
		Expect(moved.Type.Name).To(Equal("PISTON"))
	})

	It("caps an oscillating logic loop at 16 passes and still advances the tick (S6)", func() {
		ping, _ := reg.DefineMessageKind("PING")

		a := loc.New(0, 0, 0)
		b := loc.New(1, 0, 0)

		// Each side flips its outgoing value on every invocation, so the
		// pair's input never settles — a genuine oscillation, unlike a
		// stable echo that would converge once both sides' last input
		// stopped changing.
		aParity, bParity := 0, 0
		var bounceEast behaviorFunc = func(ctx host.Context) {
			aParity ^= 1
			ctx.Send(ctx.Node().Location.Adjacent(loc.East), ping.Bit, 0, registry.IntValue(int64(aParity)))
		}
		var bounceWest behaviorFunc = func(ctx host.Context) {
			bParity ^= 1
			ctx.Send(ctx.Node().Location.Adjacent(loc.West), ping.Bit, 0, registry.IntValue(int64(bParity)))
		}
		reg.DefineBehavior("bounceEast", ping.Bit, bounceEast)
		reg.DefineBehavior("bounceWest", ping.Bit, bounceWest)
		_, _ = reg.DefineType("EMITTER_A", nil, []string{"bounceEast"})
		_, _ = reg.DefineType("EMITTER_B", nil, []string{"bounceWest"})

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		w := engine.New(reg, funcHost{}, 4, logger)
		_, err := w.SetNode(a, "EMITTER_A")
		Expect(err).NotTo(HaveOccurred())
		_, err = w.SetNode(b, "EMITTER_B")
		Expect(err).NotTo(HaveOccurred())

		advanced, err := w.RunTick(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(advanced).To(Equal(1))
		Expect(w.Ticks()).To(Equal(uint64(1)))
		Expect(buf.String()).To(ContainSubstring("logic loop"))
	})

	It("converges without hitting the pass cap when two nodes exchange a stable value", func() {
		ping, _ := reg.DefineMessageKind("PING")

		a := loc.New(0, 0, 0)
		b := loc.New(1, 0, 0)

		var echoEast behaviorFunc = func(ctx host.Context) {
			ctx.Send(ctx.Node().Location.Adjacent(loc.East), ping.Bit, 0, registry.IntValue(7))
		}
		var echoWest behaviorFunc = func(ctx host.Context) {
			ctx.Send(ctx.Node().Location.Adjacent(loc.West), ping.Bit, 0, registry.IntValue(7))
		}
		reg.DefineBehavior("echoEast", ping.Bit, echoEast)
		reg.DefineBehavior("echoWest", ping.Bit, echoWest)
		_, _ = reg.DefineType("ECHO_A", nil, []string{"echoEast"})
		_, _ = reg.DefineType("ECHO_B", nil, []string{"echoWest"})

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		w := engine.New(reg, funcHost{}, 4, logger)
		_, err := w.SetNode(a, "ECHO_A")
		Expect(err).NotTo(HaveOccurred())
		_, err = w.SetNode(b, "ECHO_B")
		Expect(err).NotTo(HaveOccurred())

		advanced, err := w.RunTick(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(advanced).To(Equal(1))
		Expect(w.Ticks()).To(Equal(uint64(1)))
		Expect(buf.String()).NotTo(ContainSubstring("logic loop"))
	})

	It("aborts a tick early when the behavior host errors (P8)", func() {
		ctrl := gomock.NewController(GinkgoT())
		defer ctrl.Finish()

		reg.DefineBehavior("broken", registry.SystemDataBit, "broken-ref")
		_, _ = reg.DefineType("BROKEN", nil, []string{"broken"})

		mock := NewMockHost(ctrl)
		mock.EXPECT().Run(gomock.Any(), gomock.Any()).Return(errFailingBehavior)

		w := engine.New(reg, mock, 4, nil)
		_, err := w.SetNode(origin, "BROKEN")
		Expect(err).NotTo(HaveOccurred())

		advanced, err := w.RunTick(1)
		Expect(err).To(HaveOccurred())
		Expect(advanced).To(Equal(0))
		Expect(w.Ticks()).To(Equal(uint64(0)))
	})
})
