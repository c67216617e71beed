package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-financer/internal/config"
	"ai-financer/internal/models"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// fakeGroq serves /chat/completions with a fixed status and body and keeps
// the last request it received.
type fakeGroq struct {
	status  int
	content string
	body    string
	last    map[string]any
}

func (f *fakeGroq) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	raw, _ := io.ReadAll(r.Body)
	f.last = nil
	_ = json.Unmarshal(raw, &f.last)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}
	resp := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "test",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": f.content},
			"finish_reason": "stop",
		}},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newFake(t *testing.T, f *fakeGroq) config.AIConfig {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return config.AIConfig{
		BaseURL:      srv.URL + "/openai/v1",
		ChatAPIKey:   `"gsk_test"`,
		ChatModel:    "llama-3.1-8b-instant",
		VisionAPIKey: "gsk_test",
		VisionModel:  "vision",
	}
}

func testImage(t *testing.T, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{uint8(x), uint8(255 - x), 90, 255})
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func fixedExtractor(cfg config.AIConfig) *BillExtractor {
	e := NewBillExtractor(cfg, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }
	return e
}

func TestCleanKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`"gsk_abc"`, "gsk_abc", true},
		{` 'gsk_abc' `, "gsk_abc", true},
		{"", "", false},
		{`""`, "", false},
		{"your_groq_api_key_here", "", false},
	}
	for _, c := range cases {
		got, ok := cleanKey(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("cleanKey(%q) = %q, %v", c.in, got, ok)
		}
	}
}

func TestExtract_AmountOnlyGetsDefaults(t *testing.T) {
	f := &fakeGroq{content: `{"amount": "42"}`}
	e := fixedExtractor(newFake(t, f))

	d, err := e.Extract(context.Background(), testImage(t, 64, 64))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := BillDetails{
		Name: "Bill Payment", Amount: "42.00", Date: "2025-03-14",
		Description: "Bill payment", Category: "Other", Status: models.StatusPaid,
	}
	if d != want {
		t.Errorf("Extract = %+v, want %+v", d, want)
	}

	if f.last["model"] != "vision" || f.last["temperature"] != 0.1 || f.last["max_tokens"] != float64(500) {
		t.Errorf("request params = %v %v %v", f.last["model"], f.last["temperature"], f.last["max_tokens"])
	}
	rf, _ := f.last["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("response_format = %v", f.last["response_format"])
	}
}

func TestExtract_FencedJSONAndNumericAmount(t *testing.T) {
	f := &fakeGroq{content: "```json\n{\"name\":\"Power Co\",\"amount\":1234.5,\"date\":\"2025-02-01\",\"description\":\"Electricity\",\"category\":\"Utility\",\"status\":\"due\"}\n```"}
	e := fixedExtractor(newFake(t, f))

	d, err := e.Extract(context.Background(), testImage(t, 64, 64))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if d.Name != "Power Co" || d.Amount != "1234.50" || d.Date != "2025-02-01" ||
		d.Category != "Utility" || d.Status != models.StatusDue {
		t.Errorf("Extract = %+v", d)
	}
}

func TestNormalizeBill(t *testing.T) {
	d := normalizeBill(rawBill{
		Name:     "  ",
		Amount:   "-3",
		Date:     "14/03/2025",
		Category: "Travel",
		Status:   "LATE",
	}, "2025-03-14")
	if d.Name != "Bill Payment" || d.Amount != "0.00" || d.Date != "2025-03-14" ||
		d.Category != "Other" || d.Status != models.StatusPaid {
		t.Errorf("normalizeBill = %+v", d)
	}
	if got := formatAmount("1,500"); got != "1500.00" {
		t.Errorf("formatAmount(1,500) = %s", got)
	}
	if got := formatAmount(nil); got != "0.00" {
		t.Errorf("formatAmount(nil) = %s", got)
	}
}

func TestExtract_Errors(t *testing.T) {
	apiErr := func(msg string) string {
		return `{"error":{"message":"` + msg + `","type":"invalid_request_error"}}`
	}
	cases := []struct {
		name string
		fake *fakeGroq
		want error
	}{
		{"unauthorized", &fakeGroq{status: 401, body: apiErr("Invalid API Key")}, ErrInvalidCredentials},
		{"bad request", &fakeGroq{status: 400, body: apiErr("bad image")}, ErrInvalidImage},
		{"model missing", &fakeGroq{status: 404, body: apiErr("no such model")}, ErrModelNotFound},
		{"server error", &fakeGroq{status: 500, body: apiErr("boom")}, ErrService},
		{"non-json error", &fakeGroq{status: 502, body: "bad gateway"}, ErrService},
		{"empty content", &fakeGroq{content: ""}, ErrEmptyResponse},
		{"not json", &fakeGroq{content: "the total is 42"}, ErrUnparseable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := fixedExtractor(newFake(t, c.fake))
			_, err := e.Extract(context.Background(), testImage(t, 64, 64))
			if !errors.Is(err, c.want) {
				t.Errorf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestExtract_LocalFailures(t *testing.T) {
	e := fixedExtractor(config.AIConfig{VisionAPIKey: "your_key_here"})
	if _, err := e.Extract(context.Background(), testImage(t, 64, 64)); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("placeholder key err = %v", err)
	}

	e = fixedExtractor(newFake(t, &fakeGroq{content: "{}"}))
	if _, err := e.Extract(context.Background(), "data:image/png;base64,AAAA"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("short payload err = %v", err)
	}
	if _, err := e.Extract(context.Background(), "data:image/png;base64,"+strings.Repeat("!", 120)); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("bad base64 err = %v", err)
	}
}

func TestExtract_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	e := fixedExtractor(config.AIConfig{BaseURL: base, VisionAPIKey: "gsk_test", VisionModel: "vision"})
	if _, err := e.Extract(context.Background(), testImage(t, 64, 64)); !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestExtract_DownscalesLargeImages(t *testing.T) {
	f := &fakeGroq{content: `{"amount":"1"}`}
	cfg := newFake(t, f)
	cfg.MaxImagePx = 32
	e := fixedExtractor(cfg)

	if _, err := e.Extract(context.Background(), testImage(t, 128, 64)); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	msgs, _ := f.last["messages"].([]any)
	user, _ := msgs[1].(map[string]any)
	parts, _ := user["content"].([]any)
	imgPart, _ := parts[1].(map[string]any)
	url, _ := imgPart["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("image url = %.40s", url)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	if err != nil {
		t.Fatal(err)
	}
	cfgImg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if cfgImg.Width != 32 || cfgImg.Height != 16 {
		t.Errorf("uploaded image %dx%d, want 32x16", cfgImg.Width, cfgImg.Height)
	}
}

func TestAdvisor_Ask(t *testing.T) {
	f := &fakeGroq{content: "  Save more 💰  "}
	a := NewAdvisor(newFake(t, f), zerolog.Nop())

	incomes := []models.Record{{ID: 1, Amount: "1000", Date: "2025-01-01"}}
	expenses := []models.Record{{ID: 2, Amount: "250.5", Date: "2025-01-03"}}
	got, err := a.Ask(context.Background(), "How am I doing?", incomes, expenses)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "Save more 💰" {
		t.Errorf("Ask = %q", got)
	}

	if f.last["model"] != "llama-3.1-8b-instant" || f.last["temperature"] != 0.7 || f.last["max_tokens"] != float64(1000) {
		t.Errorf("request params = %v %v %v", f.last["model"], f.last["temperature"], f.last["max_tokens"])
	}
	msgs, _ := f.last["messages"].([]any)
	user, _ := msgs[1].(map[string]any)
	prompt, _ := user["content"].(string)
	for _, want := range []string{"Total Income: ₹1000.00", "Balance: ₹749.50", "How am I doing?", `"2025-01":1000`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAdvisor_Errors(t *testing.T) {
	a := NewAdvisor(config.AIConfig{}, zerolog.Nop())
	if _, err := a.Ask(context.Background(), "   ", nil, nil); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("empty question err = %v", err)
	}
	if _, err := a.Ask(context.Background(), "hi", nil, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("missing key err = %v", err)
	}

	a = NewAdvisor(newFake(t, &fakeGroq{status: 401, body: `{"error":{"message":"nope"}}`}), zerolog.Nop())
	if _, err := a.Ask(context.Background(), "hi", nil, nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("401 err = %v", err)
	}
	a = NewAdvisor(newFake(t, &fakeGroq{content: ""}), zerolog.Nop())
	if _, err := a.Ask(context.Background(), "hi", nil, nil); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("empty content err = %v", err)
	}
}
