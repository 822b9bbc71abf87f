package geo_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/ecomap/internal/domain/geo"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	miamiBeach    = geo.Coordinate{Latitude: 25.7617, Longitude: -80.1918}
	downtownMiami = geo.Coordinate{Latitude: 25.7827, Longitude: -80.2094}
	london        = geo.Coordinate{Latitude: 51.5074, Longitude: -0.1278}
	sydney        = geo.Coordinate{Latitude: -33.8688, Longitude: 151.2093}
)

func TestDistanceKm(t *testing.T) {
	Convey("Given valid coordinates", t, func() {
		Convey("When measuring a point against itself", func() {
			d, err := geo.DistanceKm(miamiBeach, miamiBeach)

			Convey("Then the distance is zero", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, 0)
			})
		})

		Convey("When measuring Miami Beach to Downtown Miami", func() {
			d, err := geo.DistanceKm(miamiBeach, downtownMiami)

			Convey("Then it is a little under 3 km", func() {
				So(err, ShouldBeNil)
				So(d, ShouldAlmostEqual, 2.9255, 0.01)
			})
		})

		Convey("When measuring one degree along the equator", func() {
			d, err := geo.DistanceKm(geo.Coordinate{}, geo.Coordinate{Longitude: 1})

			Convey("Then it matches R times pi over 180", func() {
				So(err, ShouldBeNil)
				So(d, ShouldAlmostEqual, geo.EarthRadiusKm*math.Pi/180, 1e-9)
			})
		})

		Convey("When measuring antipodal points", func() {
			d, err := geo.DistanceKm(geo.Coordinate{Latitude: 0, Longitude: 0}, geo.Coordinate{Latitude: 0, Longitude: 180})

			Convey("Then it is half the circumference and not NaN", func() {
				So(err, ShouldBeNil)
				So(math.IsNaN(d), ShouldBeFalse)
				So(d, ShouldAlmostEqual, math.Pi*geo.EarthRadiusKm, 1e-6)
			})
		})

		Convey("When swapping the arguments", func() {
			pairs := [][2]geo.Coordinate{
				{miamiBeach, downtownMiami},
				{london, sydney},
				{{Latitude: 90}, {Latitude: -90}},
				{{Longitude: -179.9}, {Longitude: 179.9}},
			}

			Convey("Then the distance is symmetric", func() {
				for _, p := range pairs {
					ab, err := geo.DistanceKm(p[0], p[1])
					So(err, ShouldBeNil)
					ba, err := geo.DistanceKm(p[1], p[0])
					So(err, ShouldBeNil)
					So(math.Abs(ab-ba), ShouldBeLessThanOrEqualTo, 1e-9*math.Max(1, ab))
					So(ab, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})
		})

		Convey("When going through an intermediate point", func() {
			points := []geo.Coordinate{miamiBeach, downtownMiami, london, sydney, {Latitude: 89, Longitude: 10}}

			Convey("Then the triangle inequality holds", func() {
				for _, a := range points {
					for _, b := range points {
						for _, c := range points {
							ac := geo.Haversine(a, c)
							ab := geo.Haversine(a, b)
							bc := geo.Haversine(b, c)
							So(ac, ShouldBeLessThanOrEqualTo, ab+bc+1e-6)
						}
					}
				}
			})
		})
	})

	Convey("Given invalid coordinates", t, func() {
		bad := []geo.Coordinate{
			{Latitude: math.NaN()},
			{Longitude: math.NaN()},
			{Latitude: 90.0001},
			{Latitude: -91},
			{Longitude: 180.5},
			{Longitude: -181},
			{Latitude: math.Inf(1)},
		}

		Convey("Then either argument position is rejected", func() {
			for _, c := range bad {
				_, err := geo.DistanceKm(c, miamiBeach)
				So(errors.Is(err, geo.ErrInvalidCoordinate), ShouldBeTrue)
				_, err = geo.DistanceKm(miamiBeach, c)
				So(errors.Is(err, geo.ErrInvalidCoordinate), ShouldBeTrue)
			}
		})

		Convey("Then the boundary values themselves are valid", func() {
			for _, c := range []geo.Coordinate{{Latitude: 90}, {Latitude: -90}, {Longitude: 180}, {Longitude: -180}} {
				So(c.Validate(), ShouldBeNil)
			}
		})
	})
}

func TestCoordinateString(t *testing.T) {
	Convey("Given a coordinate", t, func() {
		So(miamiBeach.String(), ShouldEqual, "(25.7617, -80.1918)")
	})
}
