package classifier

// Option applies a configuration option to the Logistic classifier.
type Option func(*Logistic)

// WithMaxIterations caps the number of Newton steps.
func WithMaxIterations(n int) Option {
	return func(l *Logistic) {
		if n > 0 {
			l.maxIter = n
		}
	}
}

// WithTolerance sets the convergence threshold on the largest coefficient update.
func WithTolerance(tol float64) Option {
	return func(l *Logistic) {
		if tol > 0 {
			l.tol = tol
		}
	}
}

// WithInverseRegularization sets C, the inverse L2 penalty strength.
func WithInverseRegularization(c float64) Option {
	return func(l *Logistic) {
		if c > 0 {
			l.c = c
		}
	}
}

// WithBalancedClassWeights toggles n/(2*n_class) sample weighting.
func WithBalancedClassWeights(enabled bool) Option {
	return func(l *Logistic) {
		l.balanced = enabled
	}
}
