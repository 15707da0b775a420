package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/econgpt/internal/app"
	"github.com/okian/econgpt/internal/config"
	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/internal/domain/persona"
	"github.com/okian/econgpt/internal/domain/types"
	"github.com/okian/econgpt/pkg/logger"
)

type staticLoader struct{ table types.Table }

func (l staticLoader) Load(context.Context) (types.Table, error) { return l.table, nil }

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, req model.CompletionRequest) (string, error) {
	return req.Prompt, nil
}

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then it should expose every subcommand", func() {
			names := make([]string, 0, len(root.Commands()))
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			convey.So(names, convey.ShouldContain, "serve")
			convey.So(names, convey.ShouldContain, "table")
			convey.So(names, convey.ShouldContain, "ask")
			convey.So(names, convey.ShouldContain, "seed")
		})

		convey.Convey("And configFrom should fall back to defaults", func() {
			cfg := configFrom(context.Background())
			convey.So(cfg.Addr, convey.ShouldEqual, config.New().Addr)
		})
	})
}

func TestSeedAndTableCommands(t *testing.T) {
	t.Setenv("ECONGPT_WAREHOUSE_DRIVER", "sqlite")
	t.Setenv("ECONGPT_WAREHOUSE_MAX_OPEN_CONNS", "1")
	t.Setenv("ECONGPT_LOG_LEVEL", "error")

	convey.Convey("Given a seeded SQLite warehouse", t, func() {
		t.Setenv("ECONGPT_WAREHOUSE_DSN", filepath.Join(t.TempDir(), "warehouse.db"))
		_, err := execute("seed", "--quarters", "8", "--start", "2001-01-01")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the table command prints inflation", func() {
			out, err := execute("table", "--indicators", "INFLATION")

			convey.Convey("Then the first quarters should be undefined", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out), "\n")
				convey.So(lines[0], convey.ShouldContainSubstring, "INFLATION")
				convey.So(lines[0], convey.ShouldNotContainSubstring, "GROWTH")
				convey.So(lines[1], convey.ShouldContainSubstring, "2001-01-01")
				convey.So(strings.TrimSpace(lines[1]), convey.ShouldEndWith, "-")
				convey.So(strings.TrimSpace(lines[4]), convey.ShouldNotEndWith, "-")
			})
		})

		convey.Convey("When the table command prints JSON", func() {
			out, err := execute("table", "--json")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"unemployment"`)
		})

		convey.Convey("When an unknown indicator is requested", func() {
			_, err := execute("table", "--indicators", "GDP")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestAskCommand(t *testing.T) {
	t.Setenv("ECONGPT_COMPLETION_API_KEY", "test-key")
	t.Setenv("ECONGPT_LOG_LEVEL", "error")

	convey.Convey("Given the ask command", t, func() {
		convey.Convey("When the persona is unknown", func() {
			_, err := execute("ask", "--persona", "Karl Marx", "What is value?")

			convey.Convey("Then it should fail before any remote call", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "unknown persona")
			})
		})

		convey.Convey("When no question is given", func() {
			_, err := execute("ask")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestNewMux(t *testing.T) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		t.Fatal(err)
	}

	convey.Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithLoader(staticLoader{table: types.Table{}}),
			service.WithResponder(persona.NewResponder(echoCompleter{})),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, config.New(), svc, false)

		convey.Convey("Then the UI, docs and API should all be routed", func() {
			for path, contentType := range map[string]string{
				"/":             "text/html",
				"/openapi.yaml": "application/yaml",
				"/api/personas": "application/json",
				"/api/economy":  "application/json",
				"/stats":        "application/json",
			} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldContainSubstring, contentType)
			}
		})
	})
}
