package classifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/rollcall/internal/domain/classifier"
	. "github.com/smartystreets/goconvey/convey"
)

// overlapping returns a one-feature dataset where larger x means positive
// more often, with some noise so the classes are not separable.
func overlapping() ([][]float64, []bool) {
	X := [][]float64{}
	y := []bool{}
	for i := 0; i < 40; i++ {
		x := float64(i % 10)
		X = append(X, []float64{x, 1})
		y = append(y, (x >= 5) != (i%7 == 0))
	}
	return X, y
}

func TestLogisticFit(t *testing.T) {
	Convey("Given a logistic classifier", t, func() {
		clf := classifier.NewLogistic()
		ctx := context.Background()

		Convey("Then it reports its algorithm name", func() {
			So(clf.Name(), ShouldEqual, "logistic_regression")
		})

		Convey("When fitted on overlapping classes", func() {
			X, y := overlapping()
			model, err := clf.Fit(ctx, X, y)
			So(err, ShouldBeNil)

			Convey("Then probabilities increase with the informative feature", func() {
				lo, err := model.PredictProba([]float64{0, 1})
				So(err, ShouldBeNil)
				hi, err := model.PredictProba([]float64{9, 1})
				So(err, ShouldBeNil)
				So(hi, ShouldBeGreaterThan, lo)
				So(lo, ShouldBeBetween, 0.0, 1.0)
				So(hi, ShouldBeBetween, 0.0, 1.0)
			})

			Convey("And refitting yields identical predictions", func() {
				again, err := clf.Fit(ctx, X, y)
				So(err, ShouldBeNil)
				a, _ := model.PredictProba([]float64{4, 1})
				b, _ := again.PredictProba([]float64{4, 1})
				So(a, ShouldEqual, b)
			})

			Convey("And a wrong-length vector is rejected", func() {
				_, err := model.PredictProba([]float64{1})
				So(errors.Is(err, classifier.ErrFeatureArity), ShouldBeTrue)
			})
		})

		Convey("When fitted on perfectly separable classes", func() {
			X := [][]float64{{0}, {1}, {2}, {3}, {7}, {8}, {9}, {10}}
			y := []bool{false, false, false, false, true, true, true, true}
			model, err := clf.Fit(ctx, X, y)

			Convey("Then regularization keeps the fit finite", func() {
				So(err, ShouldBeNil)
				p, _ := model.PredictProba([]float64{10})
				So(p, ShouldBeGreaterThan, 0.5)
				So(p, ShouldBeLessThan, 1)
			})
		})

		Convey("When there are no samples", func() {
			_, err := clf.Fit(ctx, nil, nil)
			So(errors.Is(err, classifier.ErrNoSamples), ShouldBeTrue)
		})

		Convey("When all labels are the same", func() {
			_, err := clf.Fit(ctx, [][]float64{{1}, {2}}, []bool{true, true})
			So(errors.Is(err, classifier.ErrSingleClass), ShouldBeTrue)
		})

		Convey("When labels and rows disagree in count", func() {
			_, err := clf.Fit(ctx, [][]float64{{1}, {2}}, []bool{true})
			So(errors.Is(err, classifier.ErrLabelMismatch), ShouldBeTrue)
		})

		Convey("When rows have different lengths", func() {
			_, err := clf.Fit(ctx, [][]float64{{1, 2}, {2}}, []bool{true, false})
			So(errors.Is(err, classifier.ErrFeatureArity), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			X, y := overlapping()
			_, err := clf.Fit(cctx, X, y)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestLogisticModelNotFitted(t *testing.T) {
	Convey("Given a zero model", t, func() {
		var m *classifier.LogisticModel

		Convey("Then predictions fail", func() {
			_, err := m.PredictProba([]float64{1})
			So(errors.Is(err, classifier.ErrNotFitted), ShouldBeTrue)
			So(m.Coefficients(), ShouldBeNil)
		})
	})
}

func TestLogisticOptions(t *testing.T) {
	Convey("Given strong regularization", t, func() {
		X, y := overlapping()
		weak, err := classifier.NewLogistic(classifier.WithInverseRegularization(100)).Fit(context.Background(), X, y)
		So(err, ShouldBeNil)
		strong, err := classifier.NewLogistic(classifier.WithInverseRegularization(0.001)).Fit(context.Background(), X, y)
		So(err, ShouldBeNil)

		Convey("Then coefficients shrink toward zero", func() {
			w := weak.(*classifier.LogisticModel).Coefficients()
			s := strong.(*classifier.LogisticModel).Coefficients()
			So(abs(s[0]), ShouldBeLessThan, abs(w[0]))
		})
	})

	Convey("Given a single iteration budget", t, func() {
		X, y := overlapping()
		model, err := classifier.NewLogistic(
			classifier.WithMaxIterations(1),
			classifier.WithTolerance(1e-3),
			classifier.WithBalancedClassWeights(false),
		).Fit(context.Background(), X, y)

		Convey("Then a model is still returned", func() {
			So(err, ShouldBeNil)
			p, err := model.PredictProba([]float64{5, 1})
			So(err, ShouldBeNil)
			So(p, ShouldBeBetween, 0.0, 1.0)
		})
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
