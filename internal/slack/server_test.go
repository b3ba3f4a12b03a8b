package slack_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gapless/explainbot/internal/codec"
	"github.com/gapless/explainbot/internal/config"
	"github.com/gapless/explainbot/internal/conversation"
	"github.com/gapless/explainbot/internal/format"
	slackserver "github.com/gapless/explainbot/internal/slack"
)

const signingSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type explainCall struct {
	Text     string
	Previous string
	More     bool
}

type fakeExplainer struct {
	mu     sync.Mutex
	calls  []explainCall
	result string
}

func (f *fakeExplainer) Explain(_ context.Context, text string, _ conversation.Platform, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, explainCall{Text: text})
	return f.result, nil
}

func (f *fakeExplainer) ExplainMore(_ context.Context, text, previous string, _ conversation.Platform, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, explainCall{Text: text, Previous: previous, More: true})
	return f.result, nil
}

func (f *fakeExplainer) Calls() []explainCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]explainCall(nil), f.calls...)
}

// fakeSlack stands in for the Web API and for response URLs.
type fakeSlack struct {
	mu        sync.Mutex
	srv       *httptest.Server
	responses []map[string]any
	posts     []url.Values
}

func newFakeSlack() *fakeSlack {
	f := &fakeSlack{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth.test", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"user_id":"UBOT","team":"Gapless"}`))
	})
	mux.HandleFunc("/api/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.posts = append(f.posts, r.PostForm)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1700000000.000100"}`))
	})
	mux.HandleFunc("/hooks/response", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.responses = append(f.responses, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	f.srv = httptest.NewServer(mux)
	return f
}

func (f *fakeSlack) Responses() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.responses...)
}

func (f *fakeSlack) Posts() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.posts...)
}

func (f *fakeSlack) ResponseURL() string {
	return f.srv.URL + "/hooks/response"
}

func sign(req *http.Request, body string, secret string, at time.Time) {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func signedRequest(body, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	sign(req, body, signingSecret, time.Now())
	return req
}

func formRequest(values url.Values) *http.Request {
	return signedRequest(values.Encode(), "application/x-www-form-urlencoded")
}

func interactionRequest(payload map[string]any) *http.Request {
	raw, err := json.Marshal(payload)
	Expect(err).NotTo(HaveOccurred())
	return formRequest(url.Values{"payload": {string(raw)}})
}

// actionIDs returns the action ids in a webhook body's actions blocks.
func actionIDs(body map[string]any) []string {
	var ids []string
	blocks, _ := body["blocks"].([]any)
	for _, b := range blocks {
		block, _ := b.(map[string]any)
		if block["type"] != "actions" {
			continue
		}
		elements, _ := block["elements"].([]any)
		for _, e := range elements {
			el, _ := e.(map[string]any)
			if id, ok := el["action_id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

var _ = Describe("Slack server", func() {
	var (
		handler   http.Handler
		fake      *fakeSlack
		explainer *fakeExplainer
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)

		fake = newFakeSlack()
		DeferCleanup(fake.srv.Close)

		explainer = &fakeExplainer{result: "A greeting."}
		srv := slackserver.New(
			config.SlackConfig{Enabled: true, BotToken: "xoxb-test", SigningSecret: signingSecret, Port: 3000},
			slackserver.Deps{
				Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
				Explainer: explainer,
				Formatter: format.New(config.DefaultMessages),
			},
			slackserver.WithAPIURL(fake.srv.URL+"/api/"),
			slackserver.WithHTTPClient(fake.srv.Client()),
		)
		Expect(srv.Identify(context.Background())).To(Succeed())
		handler = srv.Handler()
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	It("reports health with a request id", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
		Expect(w.Header().Get("X-Request-ID")).NotTo(BeEmpty())
	})

	Context("signature verification", func() {
		It("rejects unsigned requests", func() {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("command=%2Fexplain"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			Expect(serve(req).Code).To(Equal(http.StatusUnauthorized))
			Expect(explainer.Calls()).To(BeEmpty())
		})

		It("rejects requests signed with another secret", func() {
			body := "command=%2Fexplain&text=Hello+World"
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			sign(req, body, "another-secret", time.Now())

			Expect(serve(req).Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects stale timestamps", func() {
			body := "command=%2Fexplain&text=Hello+World"
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			sign(req, body, signingSecret, time.Now().Add(-time.Hour))

			Expect(serve(req).Code).To(Equal(http.StatusUnauthorized))
		})
	})

	It("answers the URL verification challenge", func() {
		w := serve(signedRequest(`{"token":"t","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P","type":"url_verification"}`, "application/json"))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P"))
	})

	Context("/explain", func() {
		It("acknowledges with an empty body and replies through the response URL", func() {
			w := serve(formRequest(url.Values{
				"command":      {"/explain"},
				"text":         {"Hello World"},
				"team_id":      {"T1"},
				"user_id":      {"U1"},
				"channel_id":   {"C1"},
				"response_url": {fake.ResponseURL()},
			}))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(BeEmpty())
			Expect(explainer.Calls()).To(Equal([]explainCall{{Text: "Hello World"}}))

			responses := fake.Responses()
			Expect(responses).To(HaveLen(1))
			Expect(responses[0]).To(HaveKeyWithValue("response_type", "ephemeral"))
			Expect(responses[0]["replace_original"]).NotTo(Equal(true))
			Expect(actionIDs(responses[0])).To(Equal([]string{format.ExplainMoreID}))
		})

		It("answers missing text synchronously without calling the service", func() {
			w := serve(formRequest(url.Values{
				"command":      {"/explain"},
				"text":         {""},
				"response_url": {fake.ResponseURL()},
			}))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"response_type":"ephemeral","text":"` + config.DefaultMessages.NoText + `"}`))
			Expect(explainer.Calls()).To(BeEmpty())
			Expect(fake.Responses()).To(BeEmpty())
		})
	})

	It("explains a message shortcut with markers removed", func() {
		w := serve(interactionRequest(map[string]any{
			"type":         "message_action",
			"callback_id":  "gapless_explain",
			"response_url": fake.ResponseURL(),
			"team":         map[string]any{"id": "T1"},
			"user":         map[string]any{"id": "U1"},
			"channel":      map[string]any{"id": "C1"},
			"message":      map[string]any{"type": "message", "text": "# Hello World"},
		}))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(explainer.Calls()).To(Equal([]explainCall{{Text: "Hello World"}}))
		Expect(fake.Responses()).To(HaveLen(1))
	})

	Context("explain more", func() {
		blockAction := func(value string) *http.Request {
			return interactionRequest(map[string]any{
				"type":         "block_actions",
				"response_url": fake.ResponseURL(),
				"team":         map[string]any{"id": "T1"},
				"user":         map[string]any{"id": "U1"},
				"channel":      map[string]any{"id": "C1"},
				"actions": []map[string]any{
					{"type": "button", "block_id": "b1", "action_id": format.ExplainMoreID, "value": value},
				},
			})
		}

		It("replays the carried turn and replaces the original", func() {
			value, err := codec.EncodeSlack(conversation.Turn{InputText: "Hello World", Explanation: "A greeting."})
			Expect(err).NotTo(HaveOccurred())
			explainer.result = "A more detailed greeting."

			w := serve(blockAction(value))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(explainer.Calls()).To(Equal([]explainCall{{Text: "Hello World", Previous: "A greeting.", More: true}}))

			responses := fake.Responses()
			Expect(responses).To(HaveLen(1))
			Expect(responses[0]).To(HaveKeyWithValue("replace_original", true))
			Expect(actionIDs(responses[0])).To(Equal([]string{format.ExplainMoreID}))
		})

		It("posts the error notice for a corrupted value", func() {
			w := serve(blockAction(`{"text":"Hello Wor`))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(explainer.Calls()).To(BeEmpty())

			responses := fake.Responses()
			Expect(responses).To(HaveLen(1))
			Expect(responses[0]).To(HaveKeyWithValue("text", config.DefaultMessages.Error))
			Expect(actionIDs(responses[0])).To(BeEmpty())
		})
	})

	Context("member_joined_channel", func() {
		joined := func(user string) *http.Request {
			return signedRequest(`{"token":"t","team_id":"T1","type":"event_callback","event":{"type":"member_joined_channel","user":"`+user+`","channel":"C1","channel_type":"C","team":"T1"}}`, "application/json")
		}

		It("greets the channel when the bot joins", func() {
			w := serve(joined("UBOT"))

			Expect(w.Code).To(Equal(http.StatusOK))
			posts := fake.Posts()
			Expect(posts).To(HaveLen(1))
			Expect(posts[0].Get("channel")).To(Equal("C1"))
			Expect(posts[0].Get("blocks")).To(ContainSubstring(config.DefaultMessages.GreetingTitle))
		})

		It("ignores other members", func() {
			w := serve(joined("U999"))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(fake.Posts()).To(BeEmpty())
		})
	})

	It("acknowledges unknown requests without acting", func() {
		w := serve(formRequest(url.Values{"command": {"/weather"}, "text": {"Hello"}, "response_url": {fake.ResponseURL()}}))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(BeEmpty())
		Expect(explainer.Calls()).To(BeEmpty())
		Expect(fake.Responses()).To(BeEmpty())
	})
})
