package sampler_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fxsim/internal/sampler"
	"github.com/san-kum/fxsim/internal/stoch"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var _ = Describe("Factorize", func() {
	reconstruct := func(f *sampler.Factor) *mat.Dense {
		F := f.Matrix()
		var out mat.Dense
		out.Mul(F, F.T())
		return &out
	}

	It("produces a lower-triangular Cholesky factor with L·Lᵗ = Σ", func() {
		cov := mat.NewSymDense(3, []float64{
			0.04, 0.01, 0.002,
			0.01, 0.09, 0.015,
			0.002, 0.015, 0.0225,
		})
		f, err := sampler.Factorize(cov, sampler.Cholesky)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Method()).To(Equal(sampler.Cholesky))

		L := f.Matrix()
		for i := 0; i < 3; i++ {
			for j := i + 1; j < 3; j++ {
				Expect(L.At(i, j)).To(BeZero())
			}
		}
		Expect(mat.EqualApprox(reconstruct(f), cov, 1e-12)).To(BeTrue())
	})

	It("signals a singular covariance on a zero eigenvalue under strict decomposition", func() {
		cov := mat.NewSymDense(3, []float64{
			1, 1, 0,
			1, 1, 0,
			0, 0, 1,
		})
		_, err := sampler.Factorize(cov, sampler.Cholesky)
		Expect(err).To(MatchError(stoch.ErrSingularCovariance))
	})

	It("tolerates a zero eigenvalue with the eigen fallback", func() {
		cov := mat.NewSymDense(3, []float64{
			1, 1, 0,
			1, 1, 0,
			0, 0, 1,
		})
		f, err := sampler.Factorize(cov, sampler.Eigen)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.EqualApprox(reconstruct(f), cov, 1e-10)).To(BeTrue())
	})

	It("rejects an indefinite matrix even with the eigen fallback", func() {
		cov := mat.NewSymDense(2, []float64{1, 2, 2, 1})
		_, err := sampler.Factorize(cov, sampler.Eigen)
		Expect(err).To(MatchError(stoch.ErrSingularCovariance))
	})

	DescribeTable("ParseMethod",
		func(name string, want sampler.Method, ok bool) {
			m, err := sampler.ParseMethod(name)
			if !ok {
				Expect(err).To(MatchError(stoch.ErrInvalidParameter))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(want))
		},
		Entry("default", "", sampler.Cholesky, true),
		Entry("cholesky", "cholesky", sampler.Cholesky, true),
		Entry("eigen", "Eigen", sampler.Eigen, true),
		Entry("unknown", "svd", sampler.Cholesky, false),
	)
})

var _ = Describe("Sampler", func() {
	var (
		mu  []float64
		cov *mat.SymDense
		dt  float64
	)

	BeforeEach(func() {
		mu = []float64{0.1, -0.2}
		cov = mat.NewSymDense(2, []float64{0.04, 0.01, 0.01, 0.09})
		dt = 0.5
	})

	It("validates inputs before factoring", func() {
		_, err := sampler.New(mu, cov, 0, sampler.Cholesky)
		Expect(err).To(MatchError(stoch.ErrInvalidParameter))

		_, err = sampler.New([]float64{0.1}, cov, dt, sampler.Cholesky)
		Expect(err).To(MatchError(stoch.ErrInvalidDimension))

		_, err = sampler.New(mu, mat.NewDense(2, 3, nil), dt, sampler.Cholesky)
		Expect(err).To(MatchError(stoch.ErrInvalidDimension))
	})

	It("scales the drift by delta_t", func() {
		s, err := sampler.New(mu, cov, dt, sampler.Cholesky)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Mean()).To(Equal([]float64{0.05, -0.1}))
		Expect(s.Dim()).To(Equal(2))
	})

	It("is deterministic for identical generator state", func() {
		s, err := sampler.New(mu, cov, dt, sampler.Cholesky)
		Expect(err).NotTo(HaveOccurred())

		a, err := s.Sample(rand.New(rand.NewSource(7)), 50)
		Expect(err).NotTo(HaveOccurred())
		b, err := s.Sample(rand.New(rand.NewSource(7)), 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(a, b)).To(BeTrue())

		c, err := s.Sample(rand.New(rand.NewSource(8)), 50)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(a, c)).To(BeFalse())
	})

	It("advances the caller's generator between calls", func() {
		s, err := sampler.New(mu, cov, dt, sampler.Cholesky)
		Expect(err).NotTo(HaveOccurred())

		rng := rand.New(rand.NewSource(3))
		a, _ := s.Sample(rng, 10)
		b, _ := s.Sample(rng, 10)
		Expect(mat.Equal(a, b)).To(BeFalse())
	})

	It("matches the target mean and covariance for a large batch", func() {
		const n = 100000
		s, err := sampler.New(mu, cov, dt, sampler.Cholesky)
		Expect(err).NotTo(HaveOccurred())

		batch, err := s.Sample(rand.New(rand.NewSource(2024)), n)
		Expect(err).NotTo(HaveOccurred())

		x := mat.Col(nil, 0, batch)
		y := mat.Col(nil, 1, batch)

		for i, col := range [][]float64{x, y} {
			se := math.Sqrt(cov.At(i, i) * dt / n)
			Expect(stat.Mean(col, nil)).To(BeNumerically("~", mu[i]*dt, 3*se))
		}

		Expect(stat.Variance(x, nil)).To(BeNumerically("~", cov.At(0, 0)*dt, 6e-4))
		Expect(stat.Variance(y, nil)).To(BeNumerically("~", cov.At(1, 1)*dt, 1.2e-3))
		Expect(stat.Covariance(x, y, nil)).To(BeNumerically("~", cov.At(0, 1)*dt, 6e-4))
	})

	It("samples a singular covariance through the eigen fallback", func() {
		singular := mat.NewSymDense(2, []float64{1, 1, 1, 1})
		_, err := sampler.New([]float64{0, 0}, singular, 1, sampler.Cholesky)
		Expect(err).To(MatchError(stoch.ErrSingularCovariance))

		s, err := sampler.New([]float64{0, 0}, singular, 1, sampler.Eigen)
		Expect(err).NotTo(HaveOccurred())

		batch, err := s.Sample(rand.New(rand.NewSource(1)), 100)
		Expect(err).NotTo(HaveOccurred())
		for r := 0; r < 100; r++ {
			Expect(batch.At(r, 0)).To(BeNumerically("~", batch.At(r, 1), 1e-9))
		}
	})

	It("rejects an empty batch", func() {
		s, err := sampler.New(mu, cov, dt, sampler.Cholesky)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Sample(rand.New(rand.NewSource(1)), 0)
		Expect(err).To(MatchError(stoch.ErrInvalidParameter))
	})
})
