// Package analysis provides the closed-form lognormal reference model and the
// sample statistics it is compared against.
//
//   - [DeriveLognormalParameters]: scale = V0·exp(mu_annual), shape = sigma_annual
//   - [LognormalParams.Density], [LognormalDensityStrict]: two-parameter lognormal pdf
//   - [Summarize]: mean, population variance, median, std dev, skewness, excess kurtosis
//   - [Compare]: empirical statistics next to the analytical mean and variance
//   - [NewHistogram], [DensityCurve], [Correlation]: data for external plotting
//
// The reference is multiplicative while the simulated paths are additive; the
// two are independent code paths and the comparison is an approximation.
//
//	params, _ := analysis.DeriveLognormalParameters(0.05, 0.2, 1.0)
//	cmp, _ := analysis.Compare(terminal, params)
package analysis
