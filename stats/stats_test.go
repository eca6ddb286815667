package stats

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDistributionEdgeCases(t *testing.T) {
	Convey("Given an empty Distribution", t, func() {
		d := NewDistribution()

		Convey("mean is NaN and stddev is +Inf", func() {
			mean, stddev := d.MeanStdDev()
			So(math.IsNaN(mean), ShouldBeTrue)
			So(math.IsInf(stddev, 1), ShouldBeTrue)
		})

		Convey("after one observation, stddev is NaN", func() {
			d.Add(42)
			mean, stddev := d.MeanStdDev()
			So(mean, ShouldEqual, 42)
			So(math.IsNaN(stddev), ShouldBeTrue)
		})
	})
}

func TestDistributionMeanStdDev(t *testing.T) {
	Convey("Given a Distribution of 2, 4, 4, 4, 5, 5, 7, 9", t, func() {
		d := NewDistribution()
		for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
			d.Add(v)
		}

		Convey("it reports the known sample mean and standard deviation", func() {
			mean, stddev := d.MeanStdDev()
			So(mean, ShouldEqual, 5)
			So(stddev, ShouldAlmostEqual, 2.138089935, 1e-6)
		})

		So(d.Count(), ShouldEqual, 8)
	})
}

func TestDistributionCombine(t *testing.T) {
	Convey("Given two disjoint Distributions", t, func() {
		a := NewDistribution()
		a.Add(1)
		a.Add(2)

		b := NewDistribution()
		b.Add(3)
		b.Add(4)

		Convey("Combine is equivalent to folding every observation into one accumulator", func() {
			combined := a.Combine(b)
			all := NewDistribution()
			all.Add(1)
			all.Add(2)
			all.Add(3)
			all.Add(4)

			wantMean, wantStddev := all.MeanStdDev()
			gotMean, gotStddev := combined.MeanStdDev()
			So(gotMean, ShouldEqual, wantMean)
			So(gotStddev, ShouldEqual, wantStddev)
			So(combined.Count(), ShouldEqual, 4)
		})
	})
}
