package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/ecomap/internal/domain/geo"
	"github.com/okian/ecomap/internal/domain/model"
	"github.com/okian/ecomap/internal/domain/proximity"
	types "github.com/okian/ecomap/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func treePlanting() model.Event {
	return model.Event{
		ID:              "2",
		Title:           "Tree Planting",
		Participants:    8,
		MaxParticipants: 20,
		Location: model.EventLocation{
			Coordinate: geo.Coordinate{Latitude: 25.7827, Longitude: -80.2094},
			Name:       "Downtown Miami",
		},
		Reward: 150,
		Type:   "planting",
	}
}

func TestEventView(t *testing.T) {
	Convey("Given a ranked event", t, func() {
		v := types.NewEventView(model.RankedEvent{Event: treePlanting(), DistanceKm: 2.9255}, true)

		Convey("Then distance and spots are filled in", func() {
			So(*v.DistanceKm, ShouldEqual, 2.9255)
			So(v.DistanceLabel, ShouldEqual, "2.9 km")
			So(v.SpotsLeft, ShouldEqual, 12)
		})

		Convey("Then the JSON flattens the event and its location", func() {
			raw, err := json.Marshal(v)
			So(err, ShouldBeNil)
			var m map[string]any
			So(json.Unmarshal(raw, &m), ShouldBeNil)
			So(m["id"], ShouldEqual, "2")
			So(m["max_participants"], ShouldEqual, 20)
			So(m["spots_left"], ShouldEqual, 12)
			So(m, ShouldNotContainKey, "maxParticipants")
			So(m["distance_label"], ShouldEqual, "2.9 km")
			loc, ok := m["location"].(map[string]any)
			So(ok, ShouldBeTrue)
			So(loc["latitude"], ShouldEqual, 25.7827)
			So(loc["name"], ShouldEqual, "Downtown Miami")
		})
	})

	Convey("Given an event without an origin", t, func() {
		v := types.NewEventView(model.RankedEvent{Event: treePlanting()}, false)

		Convey("Then no distance is rendered", func() {
			raw, err := json.Marshal(v)
			So(err, ShouldBeNil)
			So(string(raw), ShouldNotContainSubstring, "distance_km")
			So(string(raw), ShouldNotContainSubstring, "distance_label")
		})
	})
}

func TestEventList(t *testing.T) {
	Convey("Given an empty arrangement", t, func() {
		list := types.NewEventList(proximity.Arrangement{Ranked: true})

		Convey("Then events encode as an empty array", func() {
			raw, err := json.Marshal(list)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"ranked":true,"events":[]}`)
		})
	})
}
