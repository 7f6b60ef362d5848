package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/san-kum/fxsim/internal/sim"
	"github.com/san-kum/fxsim/internal/stoch"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func seeded(seed uint64) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Seed = &seed
	return cfg
}

func twoAssetInputs() stoch.Inputs {
	return stoch.Inputs{
		Drift:      []float64{0.002, -0.001},
		Covariance: mat.NewSymDense(2, []float64{0.0004, 0.0001, 0.0001, 0.0009}),
		Initial:    []float64{0.1, 1.0},
	}
}

type lastValue struct{}

func (lastValue) Name() string { return "last" }
func (lastValue) Value(p *sim.PathTensor) (float64, error) {
	sims, assets, points := p.Shape()
	return p.At(sims-1, assets-1, points-1), nil
}

var _ = Describe("Simulator", func() {
	params := stoch.Params{Steps: 12, Simulations: 40, DeltaT: 1.0 / 52}

	Describe("Run", func() {
		It("returns a tensor of shape (n_simulations, n_assets, n_steps+1)", func() {
			s, err := sim.New(twoAssetInputs(), seeded(1))
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())

			sims, assets, points := res.Paths.Shape()
			Expect(sims).To(Equal(40))
			Expect(assets).To(Equal(2))
			Expect(points).To(Equal(13))
			Expect(res.Paths.Steps()).To(Equal(12))
		})

		It("broadcasts the initial values to every simulation", func() {
			s, err := sim.New(twoAssetInputs(), seeded(1))
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < params.Simulations; i++ {
				Expect(res.Paths.At(i, 0, 0)).To(Equal(0.1))
				Expect(res.Paths.At(i, 1, 0)).To(Equal(1.0))
			}
		})

		It("adds one sampler draw per simulation per step without transforming it", func() {
			const seed = 99
			in := twoAssetInputs()
			s, err := sim.New(in, seeded(seed))
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())

			smp, err := sampler.New(in.Drift, in.Covariance, params.DeltaT, sampler.Cholesky)
			Expect(err).NotTo(HaveOccurred())
			rng := rand.New(rand.NewSource(seed))
			inc := make([]float64, 2)
			z := make([]float64, 2)

			prev := [][]float64{}
			for i := 0; i < params.Simulations; i++ {
				prev = append(prev, []float64{0.1, 1.0})
			}
			for t := 1; t <= params.Steps; t++ {
				for i := 0; i < params.Simulations; i++ {
					smp.Draw(rng, inc, z)
					for a := range inc {
						prev[i][a] += inc[a]
						Expect(res.Paths.At(i, a, t)).To(Equal(prev[i][a]))
					}
				}
			}
		})

		It("is bit-identical for identical seeds and parameters", func() {
			a, err := sim.New(twoAssetInputs(), seeded(42))
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.New(twoAssetInputs(), seeded(42))
			Expect(err).NotTo(HaveOccurred())

			ra, err := a.Run(params)
			Expect(err).NotTo(HaveOccurred())
			rb, err := b.Run(params)
			Expect(err).NotTo(HaveOccurred())

			Expect(ra.Paths.Equal(rb.Paths)).To(BeTrue())
			Expect(ra.Seed).To(Equal(uint64(42)))
		})

		It("differs for distinct seeds and for repeated runs on one generator", func() {
			a, _ := sim.New(twoAssetInputs(), seeded(1))
			b, _ := sim.New(twoAssetInputs(), seeded(2))

			ra, err := a.Run(params)
			Expect(err).NotTo(HaveOccurred())
			rb, err := b.Run(params)
			Expect(err).NotTo(HaveOccurred())
			Expect(ra.Paths.Equal(rb.Paths)).To(BeFalse())

			again, err := a.Run(params)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Paths.Equal(ra.Paths)).To(BeFalse())
		})

		It("reproduces a run after Reseed", func() {
			s, _ := sim.New(twoAssetInputs(), seeded(5))
			first, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())

			s.Reseed(5)
			second, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Paths.Equal(first.Paths)).To(BeTrue())
		})

		It("reports a seed when none is configured", func() {
			s, err := sim.New(twoAssetInputs(), sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Seed).To(Equal(s.Seed()))

			replay, _ := sim.New(twoAssetInputs(), seeded(res.Seed))
			again, err := replay.Run(params)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Paths.Equal(res.Paths)).To(BeTrue())
		})

		It("reuses the factorization while delta_t is unchanged", func() {
			s, _ := sim.New(twoAssetInputs(), seeded(1))
			a, err := s.Sampler(0.5)
			Expect(err).NotTo(HaveOccurred())
			b, err := s.Sampler(0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(BeIdenticalTo(a))

			c, err := s.Sampler(0.25)
			Expect(err).NotTo(HaveOccurred())
			Expect(c).NotTo(BeIdenticalTo(a))
		})

		It("evaluates attached metrics on the finished tensor", func() {
			s, _ := sim.New(twoAssetInputs(), seeded(3))
			s.AddMetric(lastValue{})

			res, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("last", res.Paths.At(39, 1, 12)))
		})
	})

	Describe("convergence", func() {
		It("keeps the mean increment within 3 standard errors of mu·delta_t", func() {
			in := twoAssetInputs()
			p := stoch.Params{Steps: 3, Simulations: 100000, DeltaT: 0.5}

			s, err := sim.New(in, seeded(20240611))
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(p)
			Expect(err).NotTo(HaveOccurred())

			inc, err := res.Paths.Increments(0, 2)
			Expect(err).NotTo(HaveOccurred())

			mean, std := stat.MeanStdDev(inc, nil)
			se := std / math.Sqrt(float64(p.Simulations))
			Expect(mean).To(BeNumerically("~", in.Drift[0]*p.DeltaT, 3*se))

			want := math.Sqrt(in.Covariance.At(0, 0) * p.DeltaT)
			Expect(std).To(BeNumerically("~", want, 0.02*want))
		})
	})

	Describe("validation", func() {
		It("signals InvalidDimension for a 3x3 covariance with 2 initial values", func() {
			in := stoch.Inputs{
				Drift:      []float64{0, 0, 0},
				Covariance: mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
				Initial:    []float64{1, 2},
			}
			s, err := sim.New(in, seeded(1))
			Expect(err).To(MatchError(stoch.ErrInvalidDimension))
			Expect(s).To(BeNil())
		})

		It("signals SingularCovariance before sampling when an eigenvalue is zero", func() {
			in := stoch.Inputs{
				Drift:      []float64{0, 0},
				Covariance: mat.NewSymDense(2, []float64{1, 1, 1, 1}),
				Initial:    []float64{0, 0},
			}
			s, err := sim.New(in, seeded(1))
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(params)
			Expect(err).To(MatchError(stoch.ErrSingularCovariance))
			Expect(res).To(BeNil())
		})

		It("runs a singular covariance when the eigen fallback is chosen", func() {
			in := stoch.Inputs{
				Drift:      []float64{0, 0},
				Covariance: mat.NewSymDense(2, []float64{1, 1, 1, 1}),
				Initial:    []float64{0, 0},
			}
			cfg := seeded(1)
			cfg.Factorization = sampler.Eigen
			s, err := sim.New(in, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(params)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Factorization).To(Equal(sampler.Eigen))
		})

		DescribeTable("rejects invalid parameters without returning paths",
			func(p stoch.Params) {
				s, _ := sim.New(twoAssetInputs(), seeded(1))
				res, err := s.Run(p)
				Expect(err).To(MatchError(stoch.ErrInvalidParameter))
				Expect(res).To(BeNil())
			},
			Entry("zero steps", stoch.Params{Steps: 0, Simulations: 10, DeltaT: 1}),
			Entry("zero simulations", stoch.Params{Steps: 10, Simulations: 0, DeltaT: 1}),
			Entry("zero delta_t", stoch.Params{Steps: 10, Simulations: 10, DeltaT: 0}),
			Entry("negative delta_t", stoch.Params{Steps: 10, Simulations: 10, DeltaT: -0.1}),
		)

		It("rejects an invalid configuration", func() {
			cfg := seeded(1)
			cfg.Workers = -1
			_, err := sim.New(twoAssetInputs(), cfg)
			Expect(err).To(MatchError(stoch.ErrInvalidParameter))

			cfg = seeded(1)
			cfg.Mode = sim.ModeSplit
			cfg.BlockSize = -5
			_, err = sim.New(twoAssetInputs(), cfg)
			Expect(err).To(MatchError(stoch.ErrInvalidParameter))
		})
	})
})
