package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fxsim/internal/sim"
	"github.com/san-kum/fxsim/internal/stoch"
	"golang.org/x/exp/rand"
)

var _ = Describe("split mode", func() {
	params := stoch.Params{Steps: 20, Simulations: 1000, DeltaT: 0.1}

	split := func(seed uint64, workers, block int) *sim.PathTensor {
		cfg := seeded(seed)
		cfg.Mode = sim.ModeSplit
		cfg.Workers = workers
		cfg.BlockSize = block

		s, err := sim.New(twoAssetInputs(), cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := s.Run(params)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Mode).To(Equal(sim.ModeSplit))
		return res.Paths
	}

	It("does not depend on the number of workers", func() {
		one := split(11, 1, 64)
		four := split(11, 4, 64)
		many := split(11, 32, 64)
		Expect(four.Equal(one)).To(BeTrue())
		Expect(many.Equal(one)).To(BeTrue())
	})

	It("depends on the seed", func() {
		Expect(split(11, 4, 64).Equal(split(12, 4, 64))).To(BeFalse())
	})

	It("keeps the initial column intact", func() {
		p := split(3, 4, 100)
		col, err := p.Column(1, 0)
		Expect(err).NotTo(HaveOccurred())
		for _, v := range col {
			Expect(v).To(Equal(1.0))
		}
	})

	It("uses the default block size when none is given", func() {
		Expect(split(5, 2, 0).Equal(split(5, 2, sim.DefaultBlockSize))).To(BeTrue())
	})

	It("derives one seed per block in block order", func() {
		seeds := sim.BlockSeeds(rand.New(rand.NewSource(9)), 1000, 64)
		Expect(seeds).To(HaveLen(16))

		again := sim.BlockSeeds(rand.New(rand.NewSource(9)), 1000, 64)
		Expect(again).To(Equal(seeds))
	})
})

var _ = Describe("ParseMode", func() {
	It("maps configuration names", func() {
		m, err := sim.ParseMode("split")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(sim.ModeSplit))

		m, err = sim.ParseMode("")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(sim.ModeSerial))

		_, err = sim.ParseMode("gpu")
		Expect(err).To(MatchError(stoch.ErrInvalidParameter))
	})
})
