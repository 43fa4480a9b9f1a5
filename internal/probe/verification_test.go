package probe

import (
	"errors"
	"testing"

	"github.com/okian/rollcall/internal/domain/features"
	"github.com/okian/rollcall/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func validResponse() types.RiskResponse {
	return types.RiskResponse{
		Role:      "admin",
		Scope:     "all",
		Algorithm: "logistic_regression",
		Features:  features.Names(),
		Rows: []types.RiskRow{
			{StudentID: 2, CourseID: 100, TotalRecords: 8, WindowSize: 5, RecentAbsentRate: 0.8, AbsentStreak: 3, RiskAbsentNext: 0.7, Model: "heuristic", Confidence: 0.4},
			{StudentID: 1, CourseID: 100, TotalRecords: 3, WindowSize: 3, RecentAbsentRate: 0.33, AbsentStreak: 1, RiskAbsentNext: 0.3, Model: "heuristic", Confidence: 0.2},
			{StudentID: 3, CourseID: 100, TotalRecords: 3, WindowSize: 3, RecentAbsentRate: 0.33, AbsentStreak: 1, RiskAbsentNext: 0.3, Model: "heuristic", Confidence: 0.2},
		},
	}
}

func TestVerify(t *testing.T) {
	Convey("Given a well formed response", t, func() {
		resp := validResponse()

		Convey("Then it verifies", func() {
			So(Verify(resp, 5, 50), ShouldBeNil)
		})

		Convey("When the window was clamped", func() {
			So(Verify(resp, 99, 0), ShouldNotBeNil)
			resp.Rows[0].WindowSize = 8
			So(Verify(resp, 99, 0), ShouldBeNil)
		})

		Convey("When rows exceed the limit", func() {
			err := Verify(resp, 5, 2)
			So(errors.Is(err, ErrViolation), ShouldBeTrue)
		})

		Convey("When rows are out of order", func() {
			resp.Rows[1], resp.Rows[2] = resp.Rows[2], resp.Rows[1]
			So(errors.Is(Verify(resp, 5, 50), ErrViolation), ShouldBeTrue)
		})

		Convey("When a risk leaves the probability band", func() {
			resp.Rows[0].RiskAbsentNext = 1
			So(errors.Is(Verify(resp, 5, 50), ErrViolation), ShouldBeTrue)
		})

		Convey("When an untrained response names the classifier", func() {
			resp.Rows[2].Model = "logistic_regression"
			So(errors.Is(Verify(resp, 5, 50), ErrViolation), ShouldBeTrue)
		})

		Convey("When a trained response mixes classifier and heuristic rows", func() {
			resp.Trained = true
			resp.TrainingSamples = 40
			resp.Rows[0].Model = "logistic_regression"
			So(Verify(resp, 5, 50), ShouldBeNil)
		})

		Convey("When trained is set without samples", func() {
			resp.Trained = true
			So(errors.Is(Verify(resp, 5, 50), ErrViolation), ShouldBeTrue)
		})

		Convey("When a pair repeats", func() {
			resp.Rows[2].StudentID = 1
			So(errors.Is(Verify(resp, 5, 50), ErrViolation), ShouldBeTrue)
		})

		Convey("When the feature list is missing", func() {
			resp.Features = nil
			So(errors.Is(Verify(resp, 5, 50), ErrViolation), ShouldBeTrue)
		})
	})

	Convey("Given an empty response", t, func() {
		resp := types.RiskResponse{Features: features.Names(), Rows: []types.RiskRow{}}
		So(Verify(resp, 5, 50), ShouldBeNil)
	})
}

func TestSame(t *testing.T) {
	Convey("Given two responses to the same request", t, func() {
		a, b := validResponse(), validResponse()
		So(Same(a, b), ShouldBeNil)

		b.Rows[0].RiskAbsentNext = 0.71
		So(errors.Is(Same(a, b), ErrNonDeterministic), ShouldBeTrue)

		b = validResponse()
		b.Trained = true
		So(errors.Is(Same(a, b), ErrNonDeterministic), ShouldBeTrue)
	})
}

func TestParseWindows(t *testing.T) {
	Convey("Given window lists", t, func() {
		ks, err := ParseWindows(" 2, 5,,20 ")
		So(err, ShouldBeNil)
		So(ks, ShouldResemble, []int{2, 5, 20})

		_, err = ParseWindows("2,x")
		So(err, ShouldNotBeNil)

		_, err = ParseWindows(" , ")
		So(err, ShouldNotBeNil)
	})
}
