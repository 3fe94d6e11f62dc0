package fastview

import (
	"context"
	"html/template"
	"strconv"
	"testing"

	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

type counterView struct {
	id      string
	updates <-chan []EleUpdate
}

func newCounterView(id string) ViewBuilderFunc[string] {
	return func(done <-chan struct{}, labels <-chan string) ViewComponent {
		cv := &counterView{id: id}
		cv.updates = channerics.Convert(done, labels, func(label string) []EleUpdate {
			return []EleUpdate{SetText(cv.id, label)}
		})
		return cv
	}
}

func (cv *counterView) Updates() <-chan []EleUpdate {
	return cv.updates
}

func (cv *counterView) Parse(parent *template.Template) (string, error) {
	_, err := parent.Parse(`{{ define "` + cv.id + `" }}<span id="` + cv.id + `"></span>{{ end }}`)
	return cv.id, err
}

func TestViewBuilder(t *testing.T) {
	Convey("When building views", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("When no views were added", func() {
			_, err := NewViewBuilder[int, string]().
				WithModel(make(chan int), strconv.Itoa).
				Build()
			So(err, ShouldEqual, ErrNoViews)
		})

		Convey("When no model was given", func() {
			_, err := NewViewBuilder[int, string]().
				WithView(newCounterView("a")).
				Build()
			So(err, ShouldEqual, ErrNoModel)
		})

		Convey("When every view receives every model in order", func() {
			source := make(chan int)
			go func() {
				defer close(source)
				for i := 0; i < 3; i++ {
					source <- i
				}
			}()

			views, err := NewViewBuilder[int, string]().
				WithContext(ctx).
				WithModel(source, strconv.Itoa).
				WithView(newCounterView("a")).
				WithView(newCounterView("b")).
				Build()
			So(err, ShouldBeNil)
			So(views, ShouldHaveLength, 2)

			received := map[string][]string{}
			for updates := range FanIn(ctx.Done(), views) {
				for _, update := range updates {
					received[update.EleId] = append(received[update.EleId], update.Ops[0].Value)
				}
			}
			So(received["a"], ShouldResemble, []string{"0", "1", "2"})
			So(received["b"], ShouldResemble, []string{"0", "1", "2"})
		})

		Convey("When a view is parsed into a page", func() {
			views, err := NewViewBuilder[int, string]().
				WithContext(ctx).
				WithModel(make(chan int), strconv.Itoa).
				WithView(newCounterView("counter")).
				Build()
			So(err, ShouldBeNil)

			name, err := views[0].Parse(template.New("page"))
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "counter")
		})
	})
}

func TestSetText(t *testing.T) {
	Convey("SetText is a single textContent op", t, func() {
		update := SetText("sweep-k", "3")
		So(update.EleId, ShouldEqual, "sweep-k")
		So(update.Ops, ShouldResemble, []Op{{Key: TextContent, Value: "3"}})
	})
}
