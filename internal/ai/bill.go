package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ai-financer/internal/config"
	"ai-financer/internal/models"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

const (
	defaultBillName        = "Bill Payment"
	defaultBillAmount      = "0.00"
	defaultBillDescription = "Bill payment"
	defaultBillCategory    = "Other"
	defaultMediaType       = "image/jpeg"
	minImagePayload        = 100
)

var (
	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	mediaType  = regexp.MustCompile(`^data:(image/[^;,]+)`)
	codeFences = regexp.MustCompile("```(?:json)?\\n?")
)

// BillDetails is a partially filled expense read from a bill photo.
type BillDetails struct {
	Name        string        `json:"name"`
	Amount      string        `json:"amount"`
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Status      models.Status `json:"status"`
}

// Record turns the details into an expense ready to be added.
func (d BillDetails) Record() models.Record {
	return models.Record{
		Name:        d.Name,
		Amount:      d.Amount,
		Date:        d.Date,
		Description: d.Description,
		Category:    d.Category,
		Status:      d.Status,
	}
}

type BillExtractor struct {
	client *openai.Client
	model  string
	maxPx  int
	now    func() time.Time
	log    zerolog.Logger
}

func NewBillExtractor(cfg config.AIConfig, log zerolog.Logger) *BillExtractor {
	return &BillExtractor{
		client: newClient(cfg.VisionAPIKey, cfg),
		model:  cfg.VisionModel,
		maxPx:  cfg.MaxImagePx,
		now:    time.Now,
		log:    log.With().Str("component", "bill-extractor").Logger(),
	}
}

// Extract reads bill details from an image given as a data URI (or bare
// base64). Fields the model leaves out are filled with defaults.
func (e *BillExtractor) Extract(ctx context.Context, dataURI string) (BillDetails, error) {
	if e.client == nil {
		return BillDetails{}, ErrNotConfigured
	}

	media, payload, err := e.prepareImage(dataURI)
	if err != nil {
		return BillDetails{}, err
	}

	today := e.now().Format(time.DateOnly)
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert at extracting structured data from bill and receipt images. Always return valid JSON only, no markdown, no explanations.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: billPrompt(today)},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: "data:" + media + ";base64," + payload},
					},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		err = classify(err, ErrInvalidImage)
		e.log.Warn().Err(err).Msg("bill extraction request failed")
		return BillDetails{}, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return BillDetails{}, ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	var raw rawBill
	if err := json.Unmarshal([]byte(strings.TrimSpace(codeFences.ReplaceAllString(content, ""))), &raw); err != nil {
		e.log.Debug().Str("content", content).Msg("bill response is not json")
		return BillDetails{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return normalizeBill(raw, today), nil
}

// prepareImage validates the data URI and shrinks oversized images.
func (e *BillExtractor) prepareImage(dataURI string) (media, payload string, err error) {
	media = defaultMediaType
	if m := mediaType.FindStringSubmatch(dataURI); m != nil {
		media = m[1]
	}
	payload = dataURI
	if i := strings.Index(dataURI, ","); i >= 0 {
		payload = dataURI[i+1:]
	}
	payload = strings.TrimSpace(payload)
	if len(payload) < minImagePayload {
		return "", "", fmt.Errorf("%w: image data too short", ErrInvalidImage)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if e.maxPx <= 0 {
		return media, payload, nil
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		// formats we cannot decode are sent as they are
		return media, payload, nil
	}
	b := img.Bounds()
	if b.Dx() <= e.maxPx && b.Dy() <= e.maxPx {
		return media, payload, nil
	}

	var buf bytes.Buffer
	small := imaging.Fit(img, e.maxPx, e.maxPx, imaging.Lanczos)
	if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		e.log.Warn().Err(err).Msg("re-encode bill image")
		return media, payload, nil
	}
	e.log.Debug().
		Int("width", b.Dx()).Int("height", b.Dy()).
		Int("max_px", e.maxPx).
		Msg("downscaled bill image")
	return "image/jpeg", base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

type rawBill struct {
	Name        string `json:"name"`
	Amount      any    `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
}

func normalizeBill(raw rawBill, today string) BillDetails {
	d := BillDetails{
		Name:        strings.TrimSpace(raw.Name),
		Amount:      formatAmount(raw.Amount),
		Date:        strings.TrimSpace(raw.Date),
		Description: strings.TrimSpace(raw.Description),
		Category:    strings.TrimSpace(raw.Category),
		Status:      models.Status(strings.ToUpper(strings.TrimSpace(raw.Status))),
	}
	if d.Name == "" {
		d.Name = defaultBillName
	}
	if !isoDate.MatchString(d.Date) {
		d.Date = today
	}
	if d.Description == "" {
		d.Description = defaultBillDescription
	}
	if !models.KindExpenses.HasCategory(d.Category) {
		d.Category = defaultBillCategory
	}
	if !d.Status.Valid() {
		d.Status = models.StatusPaid
	}
	return d
}

func formatAmount(v any) string {
	var (
		d   decimal.Decimal
		err error
	)
	switch a := v.(type) {
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(a, ",", "")))
	case float64:
		d = decimal.NewFromFloat(a)
	default:
		return defaultBillAmount
	}
	if err != nil || d.IsNegative() {
		return defaultBillAmount
	}
	return d.StringFixed(2)
}

func billPrompt(today string) string {
	return `You are an expert at extracting information from bill and receipt images. Analyze this bill/receipt image and extract the following information in JSON format:

1. name: The merchant/store name or main item/service name (e.g. "Walmart", "Electricity Bill", "Restaurant ABC")
2. amount: The total amount paid as a number string (e.g. "1500.00")
3. date: The date on the bill in YYYY-MM-DD format. If no date is found use today's date: ` + today + `
4. description: A brief description of what was purchased or what the bill is for
5. category: One of "Utility", "Rent", "Groceries", "Entertainment" or "Other"

Rules:
- Extract only information that is clearly visible in the image.
- If a field cannot be determined use: name "Bill Payment", amount "0.00", today's date, description "Bill payment", category "Other".
- Return only valid JSON with no additional text or markdown.

{"name": "string", "amount": "string", "date": "YYYY-MM-DD", "description": "string", "category": "Utility|Rent|Groceries|Entertainment|Other"}`
}
