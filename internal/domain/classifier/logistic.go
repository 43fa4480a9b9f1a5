package classifier

import (
	"context"
	"fmt"
	"math"
)

// Default logistic regression configuration constants.
const (
	defaultMaxIter = 100
	defaultTol     = 1e-8
	defaultC       = 1.0
	logisticName   = "logistic_regression"
)

// Logistic is an L2-regularized logistic regression trained with Newton's
// method on standardized features. The intercept is penalized together with
// the coefficients, so results are fully determined by the training data.
type Logistic struct {
	maxIter  int
	tol      float64
	c        float64
	balanced bool
}

// NewLogistic creates a logistic regression classifier with options.
func NewLogistic(opts ...Option) *Logistic {
	l := &Logistic{
		maxIter:  defaultMaxIter,
		tol:      defaultTol,
		c:        defaultC,
		balanced: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name implements Classifier.
func (l *Logistic) Name() string { return logisticName }

// Fit implements Classifier.
func (l *Logistic) Fit(ctx context.Context, X [][]float64, y []bool) (Model, error) {
	n := len(X)
	if n == 0 {
		return nil, ErrNoSamples
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d samples, %d labels", ErrLabelMismatch, n, len(y))
	}
	d := len(X[0])
	for i, row := range X {
		if len(row) != d {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrFeatureArity, i, len(row), d)
		}
	}

	var pos int
	for _, label := range y {
		if label {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return nil, ErrSingleClass
	}

	wPos, wNeg := 1.0, 1.0
	if l.balanced {
		wPos = float64(n) / (2 * float64(pos))
		wNeg = float64(n) / (2 * float64(n-pos))
	}

	mean, scale := standardizer(X, d)
	// Design matrix with a trailing constant column for the intercept.
	Z := make([][]float64, n)
	for i, row := range X {
		z := make([]float64, d+1)
		for j, v := range row {
			z[j] = (v - mean[j]) / scale[j]
		}
		z[d] = 1
		Z[i] = z
	}

	m := d + 1
	beta := make([]float64, m)
	grad := make([]float64, m)
	hess := make([][]float64, m)
	for j := range hess {
		hess[j] = make([]float64, m)
	}

	for iter := 0; iter < l.maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fit cancelled: %w", err)
		}

		for j := 0; j < m; j++ {
			grad[j] = beta[j]
			for k := 0; k < m; k++ {
				hess[j][k] = 0
			}
			hess[j][j] = 1
		}
		for i, z := range Z {
			p := sigmoid(dot(beta, z))
			w, target := wNeg, 0.0
			if y[i] {
				w, target = wPos, 1.0
			}
			g := l.c * w * (p - target)
			h := l.c * w * p * (1 - p)
			for j := 0; j < m; j++ {
				grad[j] += g * z[j]
				hz := h * z[j]
				for k := j; k < m; k++ {
					hess[j][k] += hz * z[k]
				}
			}
		}
		for j := 0; j < m; j++ {
			for k := 0; k < j; k++ {
				hess[j][k] = hess[k][j]
			}
		}

		step, err := solve(hess, grad)
		if err != nil {
			return nil, err
		}
		var maxStep float64
		for j := range beta {
			beta[j] -= step[j]
			if math.IsNaN(beta[j]) || math.IsInf(beta[j], 0) {
				return nil, ErrDiverged
			}
			maxStep = math.Max(maxStep, math.Abs(step[j]))
		}
		if maxStep < l.tol {
			break
		}
	}

	return &LogisticModel{
		mean:      mean,
		scale:     scale,
		coef:      beta[:d],
		intercept: beta[d],
	}, nil
}

// LogisticModel is a fitted logistic regression.
type LogisticModel struct {
	mean      []float64
	scale     []float64
	coef      []float64
	intercept float64
}

// Coefficients returns a copy of the coefficients in standardized space.
func (m *LogisticModel) Coefficients() []float64 {
	if m == nil {
		return nil
	}
	out := make([]float64, len(m.coef))
	copy(out, m.coef)
	return out
}

// PredictProba implements Model.
func (m *LogisticModel) PredictProba(x []float64) (float64, error) {
	if m == nil || m.coef == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.coef) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureArity, len(x), len(m.coef))
	}
	z := m.intercept
	for j, v := range x {
		z += m.coef[j] * (v - m.mean[j]) / m.scale[j]
	}
	return sigmoid(z), nil
}

// standardizer returns per-column mean and population standard deviation.
// Constant columns get a scale of 1.
func standardizer(X [][]float64, d int) (mean, scale []float64) {
	n := float64(len(X))
	mean = make([]float64, d)
	scale = make([]float64, d)
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			diff := v - mean[j]
			scale[j] += diff * diff
		}
	}
	for j := range scale {
		s := math.Sqrt(scale[j] / n)
		if s < 1e-12 {
			s = 1
		}
		scale[j] = s
	}
	return mean, scale
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// solve returns x with A·x = b using Gaussian elimination with partial
// pivoting. A and b are left untouched.
func solve(A [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	aug := make([][]float64, n)
	for i := range A {
		row := make([]float64, n+1)
		copy(row, A[i])
		row[n] = b[i]
		aug[i] = row
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-15 {
			return nil, fmt.Errorf("%w: singular hessian", ErrDiverged)
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]
		for r := col + 1; r < n; r++ {
			f := aug[r][col] / aug[col][col]
			if f == 0 {
				continue
			}
			for k := col; k <= n; k++ {
				aug[r][k] -= f * aug[col][k]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := aug[i][n]
		for k := i + 1; k < n; k++ {
			s -= aug[i][k] * x[k]
		}
		x[i] = s / aug[i][i]
	}
	return x, nil
}
