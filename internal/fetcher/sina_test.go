package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func noopLogger() zerolog.Logger { return zerolog.Nop() }

func gbk(t *testing.T, s string) string {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	if err != nil {
		t.Fatalf("GBK 编码失败: %v", err)
	}
	return out
}

func TestSinaFetchSuccess(t *testing.T) {
	var gotPath, gotReferer string
	body := "var hq_str_nf_Y2605=\"豆油2605,8010,0,8050.5,8080,7990\";\n" +
		"var hq_str_nf_P2605=\"棕榈油2605,7600,0,abc,7700,7500\";\n" +
		"var hq_str_nf_OI2605=\"\";\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte(gbk(t, body)))
	}))
	defer srv.Close()

	s := NewSina(SinaOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	quotes, err := s.Fetch(context.Background(), []string{"nf_y2605", "nf_p2605", "nf_oi2605", "nf_m2605"})
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}

	if !strings.Contains(gotPath, "nf_y2605,nf_p2605") {
		t.Fatalf("请求路径应包含全部合约, 实际 %s", gotPath)
	}
	if gotReferer != defaultSinaReferer {
		t.Fatalf("Referer 不正确: %q", gotReferer)
	}

	y, ok := quotes["nf_y2605"]
	if !ok {
		t.Fatalf("missing nf_y2605 in %v", quotes)
	}
	if y.Name != "豆油2605" {
		t.Fatalf("GBK 名称解码错误: %q", y.Name)
	}
	if v, ok := y.Last.Get(); !ok || v != 8050.5 {
		t.Fatalf("unexpected last: %v %v", v, ok)
	}
	if v, _ := y.Open.Get(); v != 8010 {
		t.Fatalf("unexpected open: %v", v)
	}

	if quotes["nf_p2605"].Last.Valid() {
		t.Fatal("malformed last should be missing, not zero")
	}
	if oi, ok := quotes["nf_oi2605"]; !ok || oi.Last.Valid() || oi.Open.Valid() {
		t.Fatalf("empty payload should produce an all-missing sample, got %+v", oi)
	}
	if _, ok := quotes["nf_m2605"]; ok {
		t.Fatal("unanswered symbol should be absent")
	}
}

func TestSinaFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Kinsoku jikou desu!"))
	}))
	defer srv.Close()

	s := NewSina(SinaOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := s.Fetch(context.Background(), []string{"nf_y2605"}); err == nil {
		t.Fatal("HTTP 403 应返回错误")
	}
}

func TestParseSinaShortRecord(t *testing.T) {
	quotes := ParseSina(`var hq_str_nf_M2605="豆粕2605,3000";`)
	m := quotes["nf_m2605"]
	if m.Name != "豆粕2605" {
		t.Fatalf("unexpected name %q", m.Name)
	}
	if v, ok := m.Open.Get(); !ok || v != 3000 {
		t.Fatalf("unexpected open %v", v)
	}
	if m.Last.Valid() || m.High.Valid() || m.Low.Valid() {
		t.Fatal("fields beyond the record must be missing")
	}
}
