package persona_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/internal/domain/persona"
	. "github.com/smartystreets/goconvey/convey"
)

const keynes = "John Maynard Keynes (1883-1946)"

type fakeCompleter struct {
	mu       sync.Mutex
	requests []model.CompletionRequest
	text     string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, req model.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestResponder_Ask(t *testing.T) {
	Convey("Given a responder and a fresh session", t, func() {
		ctx := context.Background()
		completer := &fakeCompleter{text: "  In the long run we are all dead.\n"}
		r := persona.NewResponder(completer, persona.WithModel("test-model"))
		s := persona.NewSession("s-1")

		Convey("When a question is asked", func() {
			res, err := r.Ask(ctx, s, 0, "  What about unemployment?  ", keynes)

			Convey("Then the trimmed answer is stored in the slot", func() {
				So(err, ShouldBeNil)
				So(res.Answer, ShouldEqual, "In the long run we are all dead.")
				So(res.Persona, ShouldEqual, keynes)
				So(res.Requests, ShouldEqual, 1)
				So(s.Snapshot().Slots[0].Answer, ShouldEqual, "In the long run we are all dead.")
				So(s.Snapshot().Slots[1].Answer, ShouldEqual, "")
			})

			Convey("And the completer gets the prompt and fixed sampling parameters", func() {
				So(completer.calls(), ShouldEqual, 1)
				req := completer.requests[0]
				So(req.Prompt, ShouldEqual, "What would "+keynes+" have said about the following question: What about unemployment?")
				So(req.Model, ShouldEqual, "test-model")
				So(req.Temperature, ShouldEqual, 0.9)
				So(req.MaxTokens, ShouldEqual, 500)
				So(req.TopP, ShouldEqual, 1.0)
				So(req.FrequencyPenalty, ShouldEqual, 0.0)
				So(req.PresencePenalty, ShouldEqual, 0.0)
			})
		})

		Convey("When five questions are accepted", func() {
			for i := 0; i < 5; i++ {
				_, err := r.Ask(ctx, s, i%2, "question", keynes)
				So(err, ShouldBeNil)
			}

			Convey("Then the counter is five", func() {
				So(s.Requests(), ShouldEqual, 5)
			})

			Convey("And the sixth is rejected and the counter restarts at one", func() {
				res, err := r.Ask(ctx, s, 0, "question", keynes)
				So(errors.Is(err, persona.ErrRateLimited), ShouldBeTrue)
				So(res.Error, ShouldEqual, persona.MsgRateLimited)
				So(res.LastError, ShouldEqual, persona.MsgRateLimited)
				So(s.Requests(), ShouldEqual, 1)
				So(completer.calls(), ShouldEqual, 5)

				Convey("And the seventh is accepted again", func() {
					res, err := r.Ask(ctx, s, 0, "question", keynes)
					So(err, ShouldBeNil)
					So(res.Error, ShouldEqual, "")
					So(res.LastError, ShouldEqual, "")
					So(s.Requests(), ShouldEqual, 2)
					So(completer.calls(), ShouldEqual, 6)
				})
			})
		})

		Convey("When the question is blank", func() {
			for _, q := range []string{"", "   ", "\n\t"} {
				res, err := r.Ask(ctx, s, 1, q, keynes)
				So(errors.Is(err, persona.ErrEmptyQuestion), ShouldBeTrue)
				So(res.Error, ShouldEqual, persona.MsgEmptyQuestion)
			}

			Convey("Then no remote call is made and the counter is untouched", func() {
				So(completer.calls(), ShouldEqual, 0)
				So(s.Requests(), ShouldEqual, 0)
				So(s.Snapshot().LastError, ShouldEqual, persona.MsgEmptyQuestion)
			})
		})

		Convey("When the question is blank at the ceiling", func() {
			for i := 0; i < 5; i++ {
				_, _ = r.Ask(ctx, s, 0, "question", keynes)
			}
			res, err := r.Ask(ctx, s, 0, "", keynes)

			Convey("Then the empty question message wins and the counter stays", func() {
				So(errors.Is(err, persona.ErrEmptyQuestion), ShouldBeTrue)
				So(res.Error, ShouldEqual, persona.MsgEmptyQuestion)
				So(s.Requests(), ShouldEqual, 5)
				So(completer.calls(), ShouldEqual, 5)
			})
		})

		Convey("When the completer fails after an earlier answer", func() {
			_, err := r.Ask(ctx, s, 0, "first", keynes)
			So(err, ShouldBeNil)

			boom := errors.New("503 service unavailable")
			completer.err = boom
			res, err := r.Ask(ctx, s, 0, "second", "Adam Smith (1723-1790)")

			Convey("Then the previous answer is kept and the error is updated", func() {
				So(errors.Is(err, persona.ErrCompletion), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(res.Answer, ShouldEqual, "In the long run we are all dead.")
				So(res.Persona, ShouldEqual, keynes)
				So(res.Error, ShouldEqual, "Completion API error: 503 service unavailable")
				So(s.Snapshot().LastError, ShouldEqual, res.Error)
			})

			Convey("And the failed call still counts against the ceiling", func() {
				So(s.Requests(), ShouldEqual, 2)
			})
		})

		Convey("When one slot errors and the other answers", func() {
			_, _ = r.Ask(ctx, s, 0, "", keynes)
			_, err := r.Ask(ctx, s, 1, "question", keynes)

			Convey("Then each slot keeps its own error and the shared view is last-write-wins", func() {
				So(err, ShouldBeNil)
				snap := s.Snapshot()
				So(snap.Slots[0].Error, ShouldEqual, persona.MsgEmptyQuestion)
				So(snap.Slots[1].Error, ShouldEqual, "")
				So(snap.LastError, ShouldEqual, "")
			})
		})

		Convey("When the input is invalid", func() {
			_, errSlot := r.Ask(ctx, s, 2, "question", keynes)
			_, errPersona := r.Ask(ctx, s, 0, "question", "Karl Marx")
			_, errSession := r.Ask(ctx, nil, 0, "question", keynes)

			Convey("Then it is rejected without touching the session", func() {
				So(errors.Is(errSlot, persona.ErrInvalidSlot), ShouldBeTrue)
				So(errors.Is(errPersona, persona.ErrUnknownPersona), ShouldBeTrue)
				So(errors.Is(errSession, persona.ErrNilSession), ShouldBeTrue)
				So(s.Requests(), ShouldEqual, 0)
				So(s.Snapshot().LastError, ShouldEqual, "")
				So(completer.calls(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a responder with a custom ceiling and sampling", t, func() {
		completer := &fakeCompleter{text: "ok"}
		r := persona.NewResponder(completer,
			persona.WithCeiling(2),
			persona.WithSampling(0.2, 64, 0.5, 0.1, 0.3),
		)
		s := persona.NewSession("s-2")
		ctx := context.Background()

		_, _ = r.Ask(ctx, s, 0, "a", keynes)
		_, _ = r.Ask(ctx, s, 0, "b", keynes)
		_, err := r.Ask(ctx, s, 0, "c", keynes)

		So(r.Ceiling(), ShouldEqual, 2)
		So(errors.Is(err, persona.ErrRateLimited), ShouldBeTrue)
		So(completer.requests[0].Temperature, ShouldEqual, 0.2)
		So(completer.requests[0].MaxTokens, ShouldEqual, 64)
		So(completer.requests[0].TopP, ShouldEqual, 0.5)
		So(completer.requests[0].PresencePenalty, ShouldEqual, 0.3)
	})

	Convey("Given two sessions asking concurrently", t, func() {
		completer := &fakeCompleter{text: "answer"}
		r := persona.NewResponder(completer)
		a, b := persona.NewSession("a"), persona.NewSession("b")

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(2)
			go func() { defer wg.Done(); _, _ = r.Ask(context.Background(), a, 0, "q", keynes) }()
			go func() { defer wg.Done(); _, _ = r.Ask(context.Background(), b, 1, "q", keynes) }()
		}
		wg.Wait()

		Convey("Then their counters do not interfere", func() {
			So(a.Requests(), ShouldEqual, 4)
			So(b.Requests(), ShouldEqual, 4)
		})
	})
}
