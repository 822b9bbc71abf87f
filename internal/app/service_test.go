package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/ecomap/internal/adapters/repository"
	service "github.com/okian/ecomap/internal/app"
	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/proximity"
	"github.com/okian/ecomap/internal/domain/types"
	"github.com/okian/ecomap/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var miamiBeach = geo.Coordinate{Latitude: 25.7617, Longitude: -80.1918}

func startedService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func stop(svc *service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = svc.Stop(ctx)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(10))
		ctx := context.Background()

		Convey("Then reads fail with ErrNotStarted", func() {
			_, err := svc.ListEvents(ctx, types.EventQuery{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.TopN(ctx, 3)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats()

			Convey("Then stats describe the running service", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 10)
				So(stats["events"], ShouldEqual, 2)
				So(stats["participants"], ShouldEqual, 4)
				stop(svc)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given an invalid seed", t, func() {
		seed := repository.DefaultSeed()
		seed.Events = append(seed.Events, seed.Events[0])
		svc := service.New(service.WithSeed(seed))

		Convey("Then Start fails", func() {
			So(errors.Is(svc.Start(context.Background()), repository.ErrDuplicateEvent), ShouldBeTrue)
		})
	})
}

func TestService_ListEvents(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(service.WithWorkerCount(1))
		defer stop(svc)
		ctx := context.Background()

		Convey("When the origin is unknown", func() {
			list, err := svc.ListEvents(ctx, types.EventQuery{})

			Convey("Then the catalog is returned unranked", func() {
				So(err, ShouldBeNil)
				So(list.Ranked, ShouldBeFalse)
				So(len(list.Events), ShouldEqual, 2)
				So(list.Events[0].DistanceKm, ShouldBeNil)
			})
		})

		Convey("When the origin is Miami Beach", func() {
			origin := geo.Coordinate{Latitude: 25.7827, Longitude: -80.2094}
			list, err := svc.ListEvents(ctx, types.EventQuery{Origin: &origin})

			Convey("Then events are ranked nearest first within the default radius", func() {
				So(err, ShouldBeNil)
				So(list.Ranked, ShouldBeTrue)
				So(list.Events[0].ID, ShouldEqual, "2")
				So(list.Events[1].ID, ShouldEqual, "1")
				So(list.Events[1].DistanceLabel, ShouldEqual, "2.9 km")
			})
		})

		Convey("When a tight radius is requested", func() {
			list, err := svc.ListEvents(ctx, types.EventQuery{Origin: &miamiBeach, RadiusKm: km(1)})

			Convey("Then only the event at the origin remains", func() {
				So(err, ShouldBeNil)
				So(len(list.Events), ShouldEqual, 1)
				So(list.Events[0].Title, ShouldEqual, "Beach Cleanup")
			})
		})

		Convey("When filtering by category", func() {
			list, err := svc.ListEvents(ctx, types.EventQuery{Category: "planting"})
			So(err, ShouldBeNil)
			So(len(list.Events), ShouldEqual, 1)
			So(list.Events[0].Type, ShouldEqual, "planting")
		})

		Convey("When the request is invalid", func() {
			bad := geo.Coordinate{Latitude: 95}
			_, errCoord := svc.ListEvents(ctx, types.EventQuery{Origin: &bad})
			_, errRadius := svc.ListEvents(ctx, types.EventQuery{Origin: &miamiBeach, RadiusKm: km(-3)})
			_, errZero := svc.ListEvents(ctx, types.EventQuery{Origin: &miamiBeach, RadiusKm: km(0)})

			Convey("Then the caller error is returned", func() {
				So(errors.Is(errCoord, geo.ErrInvalidCoordinate), ShouldBeTrue)
				So(errors.Is(errRadius, proximity.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(errZero, proximity.ErrInvalidArgument), ShouldBeTrue)
			})
		})
	})
}

func TestService_GetEvent(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(service.WithWorkerCount(1))
		defer stop(svc)
		ctx := context.Background()

		Convey("Then an event can be read with and without distance", func() {
			v, err := svc.GetEvent(ctx, "2", nil)
			So(err, ShouldBeNil)
			So(v.DistanceKm, ShouldBeNil)
			So(v.SpotsLeft, ShouldEqual, 12)

			v, err = svc.GetEvent(ctx, "2", &miamiBeach)
			So(err, ShouldBeNil)
			So(*v.DistanceKm, ShouldAlmostEqual, 2.93, 0.01)
		})

		Convey("Then an unknown event is not found", func() {
			_, err := svc.GetEvent(ctx, "404", nil)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(service.WithWorkerCount(1))
		defer stop(svc)
		ctx := context.Background()

		Convey("Then the top participants come from the seed", func() {
			top, err := svc.TopN(ctx, 3)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 3)
			So(top[0].Name, ShouldEqual, "Sarah Johnson")
			So(top[0].Points, ShouldEqual, 12450)
		})

		Convey("Then rank lookups work", func() {
			e, err := svc.Rank(ctx, "4")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 4)
			_, err = svc.Rank(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then a bad limit is rejected", func() {
			_, err := svc.TopN(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func km(v float64) *float64 { return &v }
