package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"futureswatch/internal/market"
)

const (
	defaultSinaBaseURL = "https://hq.sinajs.cn"
	defaultSinaReferer = "https://finance.sina.com.cn"
	sinaVarPrefix      = "hq_str_"
)

// nfLayout is the field order of an nf_ futures record.
var nfLayout = struct {
	Name, Open, Last, High, Low int
}{Name: 0, Open: 1, Last: 3, High: 4, Low: 5}

// SinaOptions parameterise the Sina futures quote fetcher.
type SinaOptions struct {
	BaseURL   string
	Referer   string
	Timeout   time.Duration
	UserAgent string
}

// Sina fetches nf_ futures quotes from the Sina hq endpoint.
type Sina struct {
	opts    SinaOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewSina constructs a Sina quote fetcher.
func NewSina(opts SinaOptions, logger zerolog.Logger) *Sina {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSinaBaseURL
	}
	if opts.Referer == "" {
		opts.Referer = defaultSinaReferer
	}

	return &Sina{
		opts:    opts,
		logger:  logger.With().Str("component", "sina_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch requests every symbol in one call and parses the GBK encoded reply.
func (s *Sina) Fetch(ctx context.Context, symbols []string) (map[string]market.QuoteSample, error) {
	if len(symbols) == 0 {
		return map[string]market.QuoteSample{}, nil
	}

	endpoint := s.baseURL + "/list=" + strings.Join(symbols, ",")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create sina request: %w", err)
	}
	req.Header.Set("Referer", s.opts.Referer)
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send sina request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("read sina response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	wanted := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		wanted[strings.ToLower(sym)] = sym
	}

	quotes := ParseSina(string(body))
	out := make(map[string]market.QuoteSample, len(quotes))
	for code, sample := range quotes {
		sym, ok := wanted[code]
		if !ok {
			s.logger.Debug().Str("code", code).Msg("ignoring unrequested symbol")
			continue
		}
		sample.Symbol = sym
		out[sym] = sample
	}
	return out, nil
}

// ParseSina parses `var hq_str_nf_Y2605="...";` lines keyed by lower-case code.
// Malformed numeric fields become missing values; an empty payload yields a sample
// with every field missing.
func ParseSina(text string) map[string]market.QuoteSample {
	out := make(map[string]market.QuoteSample)
	for _, line := range strings.Split(text, "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if idx := strings.Index(key, sinaVarPrefix); idx >= 0 {
			key = key[idx+len(sinaVarPrefix):]
		} else if idx := strings.LastIndex(key, " "); idx >= 0 {
			key = key[idx+1:]
		}
		code := strings.ToLower(key)
		if code == "" {
			continue
		}

		raw := strings.Trim(strings.TrimSpace(val), `";`)
		out[code] = parseNF(code, raw)
	}
	return out
}

func parseNF(code, raw string) market.QuoteSample {
	sample := market.QuoteSample{Symbol: code}
	if raw == "" {
		return sample
	}
	fields := strings.Split(raw, ",")
	if len(fields) > nfLayout.Name {
		sample.Name = strings.TrimSpace(fields[nfLayout.Name])
	}
	sample.Open = field(fields, nfLayout.Open)
	sample.Last = field(fields, nfLayout.Last)
	sample.High = field(fields, nfLayout.High)
	sample.Low = field(fields, nfLayout.Low)
	return sample
}

func field(fields []string, idx int) market.Price {
	if idx >= len(fields) {
		return market.Missing()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
	if err != nil {
		return market.Missing()
	}
	return market.Some(v)
}

var _ QuoteSource = (*Sina)(nil)
