package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobwatch/internal/domain/model"

	. "github.com/smartystreets/goconvey/convey"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func samplePosting(url string) model.Posting {
	return model.Posting{
		Company:     "Acme",
		Title:       "Software Engineer",
		URL:         url,
		Location:    "Remote",
		JobType:     "Full-time",
		Description: "Build things.",
	}
}

func TestOpen(t *testing.T) {
	Convey("Given a temp directory", t, func() {
		dir := t.TempDir()

		Convey("When opening a fresh database", func() {
			store, err := Open(filepath.Join(dir, "jobs.db"))

			Convey("Then the schema is ready for use", func() {
				So(err, ShouldBeNil)
				count, err := store.Count(context.Background())
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 0)
				So(store.Close(), ShouldBeNil)
			})
		})

		Convey("When reopening an existing database", func() {
			path := filepath.Join(dir, "jobs.db")
			first, err := Open(path)
			So(err, ShouldBeNil)
			added, err := first.Add(context.Background(), samplePosting("https://acme.example/jobs/1"))
			So(err, ShouldBeNil)
			So(added, ShouldBeTrue)
			So(first.Close(), ShouldBeNil)

			second, err := Open(path)

			Convey("Then migrations are idempotent and data survives", func() {
				So(err, ShouldBeNil)
				count, err := second.Count(context.Background())
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
				So(second.Close(), ShouldBeNil)
			})
		})

		Convey("When the path is empty", func() {
			store, err := Open("  ")

			Convey("Then opening fails", func() {
				So(err, ShouldNotBeNil)
				So(store, ShouldBeNil)
			})
		})
	})
}

func TestAdd(t *testing.T) {
	Convey("Given an open store", t, func() {
		store := openTestStore(t)
		ctx := context.Background()

		Convey("When a new posting is added", func() {
			added, err := store.Add(ctx, samplePosting("https://acme.example/jobs/1"))

			Convey("Then it is persisted as new", func() {
				So(err, ShouldBeNil)
				So(added, ShouldBeTrue)
				exists, err := store.Exists(ctx, "https://acme.example/jobs/1")
				So(err, ShouldBeNil)
				So(exists, ShouldBeTrue)
			})
		})

		Convey("When the same URL is added twice", func() {
			first, err := store.Add(ctx, samplePosting("https://acme.example/jobs/1"))
			So(err, ShouldBeNil)
			So(first, ShouldBeTrue)

			changed := samplePosting("https://acme.example/jobs/1")
			changed.Title = "Staff Engineer"
			second, err := store.Add(ctx, changed)

			Convey("Then the duplicate is rejected without error", func() {
				So(err, ShouldBeNil)
				So(second, ShouldBeFalse)

				count, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)

				postings, err := store.Unnotified(ctx)
				So(err, ShouldBeNil)
				So(postings, ShouldHaveLength, 1)
				So(postings[0].Title, ShouldEqual, "Software Engineer")
			})
		})

		Convey("When the posting carries no first-seen time", func() {
			before := time.Now().Add(-time.Second)
			added, err := store.Add(ctx, samplePosting("https://acme.example/jobs/2"))
			So(err, ShouldBeNil)
			So(added, ShouldBeTrue)

			Convey("Then insertion time is recorded", func() {
				postings, err := store.Unnotified(ctx)
				So(err, ShouldBeNil)
				So(postings, ShouldHaveLength, 1)
				So(postings[0].FirstSeen.After(before), ShouldBeTrue)
			})
		})
	})
}

func TestMarkNotified(t *testing.T) {
	Convey("Given a store with one posting", t, func() {
		store := openTestStore(t)
		ctx := context.Background()
		_, err := store.Add(ctx, samplePosting("https://acme.example/jobs/1"))
		So(err, ShouldBeNil)

		Convey("When the posting is marked notified", func() {
			err := store.MarkNotified(ctx, "https://acme.example/jobs/1")

			Convey("Then it leaves the unnotified set", func() {
				So(err, ShouldBeNil)
				postings, err := store.Unnotified(ctx)
				So(err, ShouldBeNil)
				So(postings, ShouldBeEmpty)
			})

			Convey("Then marking again is a no-op", func() {
				So(store.MarkNotified(ctx, "https://acme.example/jobs/1"), ShouldBeNil)
			})
		})

		Convey("When an unknown URL is marked", func() {
			err := store.MarkNotified(ctx, "https://acme.example/jobs/404")

			Convey("Then no error is reported", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestUnnotified(t *testing.T) {
	Convey("Given postings seen at different times", t, func() {
		store := openTestStore(t)
		ctx := context.Background()
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

		newest := samplePosting("https://acme.example/jobs/newest")
		newest.FirstSeen = base.Add(2 * time.Hour)
		oldest := samplePosting("https://acme.example/jobs/oldest")
		oldest.FirstSeen = base
		middle := samplePosting("https://acme.example/jobs/middle")
		middle.FirstSeen = base.Add(time.Hour)

		for _, p := range []model.Posting{newest, oldest, middle} {
			added, err := store.Add(ctx, p)
			So(err, ShouldBeNil)
			So(added, ShouldBeTrue)
		}

		Convey("When the unnotified set is listed", func() {
			postings, err := store.Unnotified(ctx)

			Convey("Then postings come back oldest first", func() {
				So(err, ShouldBeNil)
				So(postings, ShouldHaveLength, 3)
				So(postings[0].URL, ShouldEqual, oldest.URL)
				So(postings[1].URL, ShouldEqual, middle.URL)
				So(postings[2].URL, ShouldEqual, newest.URL)
				So(postings[0].FirstSeen.Equal(base), ShouldBeTrue)
				So(postings[0].Notified, ShouldBeFalse)
			})
		})

		Convey("When some postings are notified", func() {
			So(store.MarkNotified(ctx, middle.URL), ShouldBeNil)
			postings, err := store.Unnotified(ctx)

			Convey("Then only pending postings remain, still ordered", func() {
				So(err, ShouldBeNil)
				So(postings, ShouldHaveLength, 2)
				So(postings[0].URL, ShouldEqual, oldest.URL)
				So(postings[1].URL, ShouldEqual, newest.URL)
			})
		})
	})
}
