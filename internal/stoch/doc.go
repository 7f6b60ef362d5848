// Package stoch provides the shared primitives for correlated path simulation.
//
// The package defines the inputs and parameters every simulation run is built
// from, validates them eagerly and owns the error taxonomy:
//
//   - [Inputs]: drift vector, covariance matrix and initial values
//   - [Params]: number of steps, number of simulations and the time increment
//   - [ErrInvalidDimension], [ErrSingularCovariance], [ErrInvalidParameter], [ErrDomain]
//
// # Example
//
//	in := stoch.Inputs{Drift: mu, Covariance: cov, Initial: x0}
//	if err := in.Validate(); err != nil {
//	    // errors.Is(err, stoch.ErrInvalidDimension)
//	}
//
// Nothing in this package performs I/O or logging.
package stoch
