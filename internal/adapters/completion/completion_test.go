package completion_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/econgpt/internal/adapters/completion"
	"github.com/okian/econgpt/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func request() model.CompletionRequest {
	return model.CompletionRequest{
		Prompt:      "What would Adam Smith (1723-1790) have said about the following question: tariffs?",
		Temperature: 0.9,
		MaxTokens:   500,
		TopP:        1,
	}
}

type recorder struct {
	mu     sync.Mutex
	path   string
	auth   string
	body   map[string]any
	status int
	reply  string
}

func (r *recorder) handler(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = req.URL.Path
	r.auth = req.Header.Get("Authorization")
	_ = json.NewDecoder(req.Body).Decode(&r.body)
	w.Header().Set("Content-Type", "application/json")
	if r.status != 0 {
		w.WriteHeader(r.status)
	}
	_, _ = w.Write([]byte(r.reply))
}

func TestOpenAI_Complete(t *testing.T) {
	Convey("Given an OpenAI compatible server", t, func() {
		rec := &recorder{reply: `{"choices":[{"text":"\n\nFree trade benefits all nations.","finish_reason":"stop"}]}`}
		srv := httptest.NewServer(http.HandlerFunc(rec.handler))
		defer srv.Close()

		c, err := completion.NewOpenAI(
			completion.WithAPIKey("sk-test"),
			completion.WithBaseURL(srv.URL+"/v1/"),
			completion.WithTimeout(5*time.Second),
		)
		So(err, ShouldBeNil)

		Convey("When a completion is requested", func() {
			text, err := c.Complete(context.Background(), request())

			Convey("Then the first choice text is returned untrimmed", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "\n\nFree trade benefits all nations.")
			})

			Convey("And the request carries the prompt and sampling parameters", func() {
				So(rec.path, ShouldEqual, "/v1/completions")
				So(rec.auth, ShouldEqual, "Bearer sk-test")
				So(rec.body["model"], ShouldEqual, completion.DefaultOpenAIModel)
				So(rec.body["prompt"], ShouldStartWith, "What would Adam Smith")
				So(rec.body["temperature"], ShouldEqual, 0.9)
				So(rec.body["max_tokens"], ShouldEqual, 500.0)
				So(rec.body["top_p"], ShouldEqual, 1.0)
				So(rec.body["frequency_penalty"], ShouldEqual, 0.0)
				So(rec.body["presence_penalty"], ShouldEqual, 0.0)
			})
		})

		Convey("When the request names a model", func() {
			req := request()
			req.Model = "davinci-002"
			_, err := c.Complete(context.Background(), req)

			Convey("Then it overrides the default", func() {
				So(err, ShouldBeNil)
				So(rec.body["model"], ShouldEqual, "davinci-002")
			})
		})

		Convey("When the server rejects the request", func() {
			rec.status = http.StatusTooManyRequests
			rec.reply = `{"error":{"message":"Rate limit reached","type":"requests"}}`
			_, err := c.Complete(context.Background(), request())

			Convey("Then the error carries the status and provider message", func() {
				So(errors.Is(err, completion.ErrUpstream), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "429")
				So(err.Error(), ShouldContainSubstring, "Rate limit reached")
			})
		})

		Convey("When the server answers without choices", func() {
			rec.reply = `{"choices":[]}`
			_, err := c.Complete(context.Background(), request())

			Convey("Then ErrNoChoices is returned", func() {
				So(errors.Is(err, completion.ErrNoChoices), ShouldBeTrue)
			})
		})

		Convey("When the server answers with garbage", func() {
			rec.reply = `<html>`
			_, err := c.Complete(context.Background(), request())

			Convey("Then a parse error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "parse")
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := c.Complete(ctx, request())

			Convey("Then the call fails", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given the provider factory", t, func() {
		ctx := context.Background()

		Convey("When no API key is configured", func() {
			_, errOpenAI := completion.New(ctx, completion.ProviderOpenAI)
			_, errGemini := completion.New(ctx, completion.ProviderGemini)

			Convey("Then both providers refuse to start", func() {
				So(errors.Is(errOpenAI, completion.ErrMissingAPIKey), ShouldBeTrue)
				So(errors.Is(errGemini, completion.ErrMissingAPIKey), ShouldBeTrue)
			})
		})

		Convey("When the provider is unknown", func() {
			_, err := completion.New(ctx, "davinci", completion.WithAPIKey("k"))

			Convey("Then ErrUnsupportedProvider is returned", func() {
				So(errors.Is(err, completion.ErrUnsupportedProvider), ShouldBeTrue)
			})
		})

		Convey("When an OpenAI key is configured", func() {
			c, err := completion.New(ctx, completion.ProviderOpenAI, completion.WithAPIKey("k"))

			Convey("Then an OpenAI client is built", func() {
				So(err, ShouldBeNil)
				_, ok := c.(*completion.OpenAI)
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestGemini_Complete(t *testing.T) {
	Convey("Given a Gemini compatible server", t, func() {
		var (
			mu   sync.Mutex
			path string
			body map[string]any
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"The invisible hand."}]},"finishReason":"STOP"}]}`))
		}))
		defer srv.Close()

		c, err := completion.NewGemini(context.Background(),
			completion.WithAPIKey("g-test"),
			completion.WithBaseURL(srv.URL),
			completion.WithModel("gemini-test"),
		)
		So(err, ShouldBeNil)

		Convey("When a completion is requested", func() {
			text, err := c.Complete(context.Background(), request())

			Convey("Then the candidate text is returned", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "The invisible hand.")
			})

			Convey("And the configured model is addressed", func() {
				So(strings.HasSuffix(path, "models/gemini-test:generateContent"), ShouldBeTrue)
				So(body["generationConfig"], ShouldNotBeNil)
			})
		})
	})
}
