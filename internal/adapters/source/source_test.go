package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"jobwatch/internal/config"
	"jobwatch/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestBuild(t *testing.T) {
	Convey("Given a mixed list of source configs", t, func() {
		cfgs := []config.SourceConfig{
			{Name: "Acme", Kind: "greenhouse", Board: "acme"},
			{Name: "Beta", Kind: "lever", Board: "beta"},
			{Name: "Gamma", Kind: "teleporter", Board: "gamma"},
			{Name: "Delta", Kind: "workday"},
		}

		Convey("When sources are built", func() {
			sources := Build(context.Background(), cfgs, logger.Get())

			Convey("Then unknown kinds and misconfigured entries are skipped", func() {
				So(sources, ShouldHaveLength, 2)
				So(sources[0].Name(), ShouldEqual, "Acme")
				So(sources[1].Name(), ShouldEqual, "Beta")
			})
		})
	})
}

func TestGreenhouseFetch(t *testing.T) {
	Convey("Given a Greenhouse board API", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jobs": []map[string]any{
					{
						"title":        "Software Engineer",
						"absolute_url": "https://boards.greenhouse.io/acme/jobs/1",
						"content":      "&lt;p&gt;Build &amp; ship things.&lt;/p&gt;",
						"location":     map[string]any{"name": "Remote"},
					},
					{
						"title":        "Recruiter",
						"absolute_url": "https://boards.greenhouse.io/acme/jobs/2",
						"location":     map[string]any{"name": "NYC"},
					},
				},
			})
		}))
		defer server.Close()

		src, err := newGreenhouse(config.SourceConfig{Name: "Acme", Kind: "greenhouse", URL: server.URL}, server.Client())
		So(err, ShouldBeNil)

		Convey("When postings are fetched", func() {
			postings, err := src.Fetch(context.Background())

			Convey("Then every listed job becomes a posting", func() {
				So(err, ShouldBeNil)
				So(postings, ShouldHaveLength, 2)
				So(postings[0].Company, ShouldEqual, "Acme")
				So(postings[0].Title, ShouldEqual, "Software Engineer")
				So(postings[0].URL, ShouldEqual, "https://boards.greenhouse.io/acme/jobs/1")
				So(postings[0].Location, ShouldEqual, "Remote")
			})

			Convey("Then HTML in descriptions is flattened to text", func() {
				So(err, ShouldBeNil)
				So(postings[0].Description, ShouldEqual, "Build & ship things.")
			})
		})
	})

	Convey("Given a board that responds with an error status", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer server.Close()

		src, err := newGreenhouse(config.SourceConfig{Name: "Acme", Kind: "greenhouse", URL: server.URL}, server.Client())
		So(err, ShouldBeNil)

		Convey("When postings are fetched", func() {
			postings, err := src.Fetch(context.Background())

			Convey("Then the fetch error is reported", func() {
				So(err, ShouldWrap, ErrFetch)
				So(postings, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a board that responds with garbage", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		defer server.Close()

		src, err := newGreenhouse(config.SourceConfig{Name: "Acme", Kind: "greenhouse", URL: server.URL}, server.Client())
		So(err, ShouldBeNil)

		Convey("When postings are fetched", func() {
			_, err := src.Fetch(context.Background())

			Convey("Then the decode error is reported", func() {
				So(err, ShouldWrap, ErrDecode)
			})
		})
	})
}

func TestLeverFetch(t *testing.T) {
	Convey("Given a Lever postings API", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{
					"text":             "Backend Engineer",
					"hostedUrl":        "https://jobs.lever.co/beta/1",
					"descriptionPlain": "Go services.",
					"categories": map[string]any{
						"location":   "Berlin",
						"commitment": "Full-time",
					},
				},
			})
		}))
		defer server.Close()

		src, err := newLever(config.SourceConfig{Name: "Beta", Kind: "lever", URL: server.URL}, server.Client())
		So(err, ShouldBeNil)

		Convey("When postings are fetched", func() {
			postings, err := src.Fetch(context.Background())

			Convey("Then the bare array is decoded", func() {
				So(err, ShouldBeNil)
				So(postings, ShouldHaveLength, 1)
				So(postings[0].Company, ShouldEqual, "Beta")
				So(postings[0].Title, ShouldEqual, "Backend Engineer")
				So(postings[0].URL, ShouldEqual, "https://jobs.lever.co/beta/1")
				So(postings[0].Location, ShouldEqual, "Berlin")
				So(postings[0].JobType, ShouldEqual, "Full-time")
				So(postings[0].Description, ShouldEqual, "Go services.")
			})
		})
	})
}

func TestWorkdayFetch(t *testing.T) {
	Convey("Given a paged Workday CXS API", t, func() {
		var offsets []int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req workdayRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			offsets = append(offsets, req.Offset)

			postings := make([]map[string]any, 0, workdayPageSize)
			count := workdayPageSize
			if req.Offset >= workdayPageSize {
				count = 5
			}
			for i := 0; i < count; i++ {
				postings = append(postings, map[string]any{
					"title":         "Engineer",
					"externalPath":  "/job/engineer-" + string(rune('a'+i)) + "-" + string(rune('a'+req.Offset/workdayPageSize)),
					"locationsText": "Remote",
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"total":       workdayPageSize + 5,
				"jobPostings": postings,
			})
		}))
		defer server.Close()

		cfg := config.SourceConfig{Name: "Delta", Kind: "workday", URL: server.URL + "/wday/cxs/delta/Careers/jobs"}
		src, err := newWorkday(cfg, server.Client())
		So(err, ShouldBeNil)

		Convey("When postings are fetched", func() {
			postings, err := src.Fetch(context.Background())

			Convey("Then all pages are collected", func() {
				So(err, ShouldBeNil)
				So(postings, ShouldHaveLength, workdayPageSize+5)
				So(offsets, ShouldResemble, []int{0, workdayPageSize})
				So(postings[0].Company, ShouldEqual, "Delta")
				So(postings[0].JobType, ShouldEqual, "Full-time")
			})

			Convey("Then posting links are anchored at the board site", func() {
				So(err, ShouldBeNil)
				So(postings[0].URL, ShouldStartWith, server.URL+"/Careers/job/")
			})
		})
	})
}

func TestWorkdayURLs(t *testing.T) {
	Convey("Given Workday URL variants", t, func() {
		Convey("When converting a human-readable board URL", func() {
			api, err := workdayAPIURL("https://acme.wd5.myworkdayjobs.com/Careers")

			Convey("Then the CXS endpoint is derived", func() {
				So(err, ShouldBeNil)
				So(api, ShouldEqual, "https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/Careers/jobs")
			})
		})

		Convey("When the URL is already a CXS endpoint", func() {
			api, err := workdayAPIURL("https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/Careers/jobs")

			Convey("Then it passes through unchanged", func() {
				So(err, ShouldBeNil)
				So(api, ShouldEqual, "https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/Careers/jobs")
			})
		})

		Convey("When the URL is not a Workday board at all", func() {
			_, err := workdayAPIURL("https://example.com/careers")

			Convey("Then conversion fails", func() {
				So(err, ShouldWrap, ErrMisconfigured)
			})
		})

		Convey("When deriving the site URL", func() {
			Convey("Then board pages keep their path", func() {
				So(workdaySiteURL("https://acme.wd5.myworkdayjobs.com/Careers/"),
					ShouldEqual, "https://acme.wd5.myworkdayjobs.com/Careers")
				So(workdaySiteURL("https://acme.wd5.myworkdayjobs.com/Careers?q=go"),
					ShouldEqual, "https://acme.wd5.myworkdayjobs.com/Careers")
			})

			Convey("Then CXS endpoints map back to the board", func() {
				So(workdaySiteURL("https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/Careers/jobs"),
					ShouldEqual, "https://acme.wd5.myworkdayjobs.com/Careers")
			})

			Convey("Then a CXS endpoint on a custom domain still maps", func() {
				So(workdaySiteURL("https://jobs.acme.example/wday/cxs/acme/Careers/jobs?clientRequestID=1"),
					ShouldEqual, "https://jobs.acme.example/Careers")
			})
		})
	})
}
