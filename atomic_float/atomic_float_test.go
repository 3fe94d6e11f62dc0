package atomic_float

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicAdd(t *testing.T) {
	Convey("When AtomicAdd is called", t, func() {
		Convey("When multiple writers add to the float value concurrently", func() {
			af := NewAtomicFloat64(0)
			numOps := 3000
			numWriters := 200

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(numWriters)
			adder := func() {
				defer wg.Done()
				<-start
				for i := 0; i < numOps; i++ {
					for succeeded := false; !succeeded; _, succeeded = af.AtomicAdd(0.5) {
					}
				}
			}

			for i := 0; i < numWriters; i++ {
				go adder()
			}

			// Wait for goroutines to begin
			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()
			So(af.AtomicRead(), ShouldEqual, 0.5*float64(numOps*numWriters))
		})

		Convey("When a single writer adds", func() {
			af := NewAtomicFloat64(1.25)
			newVal, succeeded := af.AtomicAdd(-0.25)
			So(succeeded, ShouldBeTrue)
			So(newVal, ShouldEqual, 1.0)
			So(af.AtomicRead(), ShouldEqual, 1.0)
		})
	})
}

func TestAtomicSet(t *testing.T) {
	Convey("When a writer sets while readers read", t, func() {
		af := NewAtomicFloat64(0)
		done := make(chan struct{})
		wg := sync.WaitGroup{}

		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
						v := af.AtomicRead()
						// Only values the writer stored are ever observed.
						if v != 0 && (v < 1 || v > 1000) {
							panic(v)
						}
					}
				}
			}()
		}

		for i := 1; i <= 1000; i++ {
			af.AtomicSet(float64(i))
		}
		close(done)
		wg.Wait()
		So(af.AtomicRead(), ShouldEqual, 1000.0)
	})
}
