package selection_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/ecomap/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func TestState(t *testing.T) {
	Convey("Given the zero State", t, func() {
		var s selection.State

		Convey("Then it is None", func() {
			_, ok := s.EventID()
			So(ok, ShouldBeFalse)
			So(s, ShouldResemble, selection.None)
			So(s.String(), ShouldEqual, "None")
		})

		Convey("When selecting an event", func() {
			next, err := s.Select("1")

			Convey("Then it becomes Selected and the original is unchanged", func() {
				So(err, ShouldBeNil)
				id, ok := next.EventID()
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, "1")
				So(next.String(), ShouldEqual, "Selected(1)")
				So(s, ShouldResemble, selection.None)
			})

			Convey("And selecting another event", func() {
				other, err := next.Select("2")

				Convey("Then the selection moves", func() {
					So(err, ShouldBeNil)
					So(other.IsSelected("2"), ShouldBeTrue)
					So(other.IsSelected("1"), ShouldBeFalse)
				})
			})

			Convey("And deselecting", func() {
				Convey("Then it returns to None", func() {
					So(next.Deselect(), ShouldResemble, selection.None)
				})
			})
		})

		Convey("When selecting an empty id", func() {
			next, err := s.Select("")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, selection.ErrInvalidArgument), ShouldBeTrue)
				So(next, ShouldResemble, selection.None)
			})
		})

		Convey("Then deselecting None stays None", func() {
			So(s.Deselect(), ShouldResemble, selection.None)
			So(s.IsSelected(""), ShouldBeFalse)
		})
	})
}

func TestController(t *testing.T) {
	Convey("Given a Controller", t, func() {
		c := selection.NewController()

		Convey("When selecting and deselecting", func() {
			held, err := c.Select("1")
			So(err, ShouldBeNil)

			Convey("Then every call reports the state it leaves behind", func() {
				So(held.IsSelected("1"), ShouldBeTrue)
				So(c.Current(), ShouldResemble, held)

				moved, err := c.Select("2")
				So(err, ShouldBeNil)
				So(moved.IsSelected("2"), ShouldBeTrue)

				So(c.Deselect(), ShouldResemble, selection.None)
				So(c.Current(), ShouldResemble, selection.None)
			})
		})

		Convey("When a select fails", func() {
			_, _ = c.Select("1")
			held, err := c.Select("")
			toggled, errToggle := c.Toggle("")

			Convey("Then the held state is kept and returned", func() {
				So(errors.Is(err, selection.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(errToggle, selection.ErrInvalidArgument), ShouldBeTrue)
				So(held.IsSelected("1"), ShouldBeTrue)
				So(toggled.IsSelected("1"), ShouldBeTrue)
				So(c.Current().IsSelected("1"), ShouldBeTrue)
			})
		})

		Convey("When toggling the same marker twice", func() {
			first, err := c.Toggle("2")
			So(err, ShouldBeNil)
			second, err := c.Toggle("2")
			So(err, ShouldBeNil)

			Convey("Then it selects and then clears", func() {
				So(first.IsSelected("2"), ShouldBeTrue)
				So(second, ShouldResemble, selection.None)
			})
		})

		Convey("When used from many goroutines", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, _ = c.Select(fmt.Sprintf("event-%d", i))
					_ = c.Current()
					if i%5 == 0 {
						c.Deselect()
					}
				}(i)
			}
			wg.Wait()

			Convey("Then it ends in a well-formed state", func() {
				s := c.Current()
				id, ok := s.EventID()
				So(ok, ShouldEqual, id != "")
			})
		})
	})
}
