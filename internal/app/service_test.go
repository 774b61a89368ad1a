package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"jobwatch/internal/adapters/notify"
	"jobwatch/internal/adapters/repository"
	"jobwatch/internal/adapters/source"
	"jobwatch/internal/domain/match"
	"jobwatch/internal/domain/model"
	"jobwatch/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// fakeSource yields canned postings, optionally blocking until released.
type fakeSource struct {
	name     string
	postings []model.Posting
	err      error
	started  chan struct{}
	block    chan struct{}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]model.Posting, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.postings, f.err
}

func posting(url, title string) model.Posting {
	return model.Posting{Company: "Acme", Title: title, URL: url, Location: "Remote"}
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	store, err := repository.Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestEngine(t *testing.T) *match.Engine {
	t.Helper()
	return match.New(context.Background(), match.Criteria{
		Include: []string{"engineer"},
		Exclude: []string{"staffing"},
		Mode:    match.ModeTokenized,
	})
}

func TestRunCycle(t *testing.T) {
	Convey("Given two sources, a store and two channels", t, func() {
		ctx := context.Background()
		store := newTestStore(t)
		engine := newTestEngine(t)

		alpha := &fakeSource{name: "alpha", postings: []model.Posting{
			posting("https://acme.example/jobs/1", "Software Engineer"),
			posting("https://acme.example/jobs/2", "Recruiter"),
			posting("https://acme.example/jobs/3", "Staffing Engineer"),
		}}
		// beta repeats a posting alpha already lists.
		beta := &fakeSource{name: "beta", postings: []model.Posting{
			posting("https://acme.example/jobs/1", "Software Engineer"),
			posting("https://acme.example/jobs/4", "Platform Engineer"),
			{Company: "Acme", Title: "Ghost Engineer"},
		}}

		good := notify.NewMemory("good")
		flaky := notify.NewMemory("flaky")
		flaky.FailOn("https://acme.example/jobs/1", errors.New("rate limited"))

		svc := New(
			WithStore(store),
			WithEngine(engine),
			WithSources([]source.Source{alpha, beta}),
			WithChannels([]notify.Channel{good, flaky}),
		)

		Convey("When one cycle runs", func() {
			report, err := svc.RunCycle(ctx)

			Convey("Then the report accounts for every stage", func() {
				So(err, ShouldBeNil)
				So(report.CycleID, ShouldNotBeEmpty)
				So(report.Scraped, ShouldEqual, 6)
				// jobs 1 (twice), 3 and 4 carry "engineer"; 3 is excluded
				// by "staffing" and the ghost posting has no URL.
				So(report.Matched, ShouldEqual, 3)
				So(report.New, ShouldEqual, 2)
				So(report.Notified, ShouldEqual, 2)
				So(report.Sources, ShouldHaveLength, 2)
				So(report.Sources[0].Source, ShouldEqual, "alpha")
				So(report.Sources[0].Scraped, ShouldEqual, 3)
			})

			Convey("Then every channel saw the full batch", func() {
				So(err, ShouldBeNil)
				So(report.Channels, ShouldHaveLength, 2)
				for _, res := range report.Channels {
					So(res.Attempted, ShouldEqual, 2)
				}
				So(good.Sent(), ShouldHaveLength, 2)
			})

			Convey("Then delivered postings are marked notified", func() {
				So(err, ShouldBeNil)
				pending, err := store.Unnotified(ctx)
				So(err, ShouldBeNil)
				So(pending, ShouldBeEmpty)
			})

			Convey("And when the same cycle runs again", func() {
				second, err := svc.RunCycle(ctx)

				Convey("Then everything is a known duplicate", func() {
					So(err, ShouldBeNil)
					So(second.Matched, ShouldEqual, 3)
					So(second.New, ShouldEqual, 0)
					So(second.Notified, ShouldEqual, 0)
				})
			})
		})
	})
}

func TestRunCycleRetriesUndelivered(t *testing.T) {
	Convey("Given a channel that fails the whole first batch", t, func() {
		ctx := context.Background()
		store := newTestStore(t)
		engine := newTestEngine(t)
		src := &fakeSource{name: "alpha", postings: []model.Posting{
			posting("https://acme.example/jobs/1", "Software Engineer"),
		}}
		ch := notify.NewMemory("flaky")
		ch.FailOn("https://acme.example/jobs/1", errors.New("telegram down"))

		svc := New(
			WithStore(store),
			WithEngine(engine),
			WithSources([]source.Source{src}),
			WithChannels([]notify.Channel{ch}),
		)

		Convey("When the first cycle cannot deliver", func() {
			report, err := svc.RunCycle(ctx)
			So(err, ShouldBeNil)
			So(report.New, ShouldEqual, 1)
			So(report.Notified, ShouldEqual, 0)

			pending, err := store.Unnotified(ctx)
			So(err, ShouldBeNil)
			So(pending, ShouldHaveLength, 1)

			Convey("Then the next cycle retries and succeeds", func() {
				ch.FailOn("https://acme.example/jobs/1", nil)

				second, err := svc.RunCycle(ctx)
				So(err, ShouldBeNil)
				So(second.New, ShouldEqual, 0)
				So(second.Notified, ShouldEqual, 1)

				pending, err := store.Unnotified(ctx)
				So(err, ShouldBeNil)
				So(pending, ShouldBeEmpty)
			})
		})
	})
}

func TestRunCycleOverlap(t *testing.T) {
	Convey("Given a source that blocks mid-fetch", t, func() {
		ctx := context.Background()
		store := newTestStore(t)
		engine := newTestEngine(t)
		started := make(chan struct{})
		release := make(chan struct{})
		slow := &fakeSource{name: "slow", started: started, block: release}

		svc := New(
			WithStore(store),
			WithEngine(engine),
			WithSources([]source.Source{slow}),
		)

		Convey("When a second cycle starts while the first is running", func() {
			done := make(chan error, 1)
			go func() {
				_, err := svc.RunCycle(ctx)
				done <- err
			}()
			<-started

			_, overlapErr := svc.RunCycle(ctx)
			close(release)

			Convey("Then the overlapping cycle is skipped", func() {
				So(overlapErr, ShouldEqual, ErrCycleInProgress)
				So(<-done, ShouldBeNil)
			})
		})
	})
}

func TestRunCycleWithoutSources(t *testing.T) {
	Convey("Given a service with no sources", t, func() {
		svc := New(WithStore(newTestStore(t)), WithEngine(newTestEngine(t)))

		Convey("When a cycle runs", func() {
			_, err := svc.RunCycle(context.Background())

			Convey("Then it refuses to do anything", func() {
				So(err, ShouldEqual, ErrNoSources)
			})
		})
	})
}

func TestSendTest(t *testing.T) {
	Convey("Given two channels", t, func() {
		ctx := context.Background()
		good := notify.NewMemory("good")
		bad := notify.NewMemory("bad")
		bad.FailOn("https://example.com/jobwatch-test", errors.New("boom"))

		svc := New(
			WithStore(newTestStore(t)),
			WithEngine(newTestEngine(t)),
			WithChannels([]notify.Channel{good, bad}),
		)

		Convey("When a test notification is sent", func() {
			err := svc.SendTest(ctx)

			Convey("Then the working channel delivers and the failure surfaces", func() {
				So(err, ShouldNotBeNil)
				So(good.Sent(), ShouldHaveLength, 1)
				So(good.Sent()[0].Title, ShouldEqual, "Test Notification")
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a service that ran one cycle", t, func() {
		ctx := context.Background()
		src := &fakeSource{name: "alpha", postings: []model.Posting{
			posting("https://acme.example/jobs/1", "Software Engineer"),
		}}
		svc := New(
			WithStore(newTestStore(t)),
			WithEngine(newTestEngine(t)),
			WithSources([]source.Source{src}),
			WithChannels([]notify.Channel{notify.NewMemory("memory")}),
		)
		_, err := svc.RunCycle(ctx)
		So(err, ShouldBeNil)

		Convey("When stats are read", func() {
			stats := svc.GetStats()

			Convey("Then counters reflect the cycle", func() {
				So(stats["sources"], ShouldEqual, 1)
				So(stats["channels"], ShouldEqual, 1)
				So(stats["cyclesRun"], ShouldEqual, 1)
				So(stats["totalPostings"], ShouldEqual, 1)
				So(stats, ShouldContainKey, "lastCycle")
			})
		})
	})
}
