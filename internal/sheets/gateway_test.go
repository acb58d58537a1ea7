package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

func newTestGateway(t *testing.T, timeout time.Duration, h http.HandlerFunc) *GoogleGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return &GoogleGateway{svc: svc, spreadsheetID: "sid", timeout: timeout, log: zap.NewNop()}
}

func TestGoogleGateway_WriteRange(t *testing.T) {
	var (
		method, path, inputOption string
		body                      struct {
			Values [][]string `json:"values"`
		}
	)
	gw := newTestGateway(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		inputOption = r.URL.Query().Get("valueInputOption")
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if err := gw.WriteRange(context.Background(), "12.05", "B3:G3", []string{"ОРВИ", "Ковид"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if method != http.MethodPut {
		t.Fatalf("want PUT, got %s", method)
	}
	if path != "/v4/spreadsheets/sid/values/'12.05'!B3:G3" {
		t.Fatalf("unexpected path %q", path)
	}
	if inputOption != "RAW" {
		t.Fatalf("want RAW input, got %q", inputOption)
	}
	// A short row is sent as-is, not padded to the range width.
	if want := [][]string{{"ОРВИ", "Ковид"}}; !reflect.DeepEqual(body.Values, want) {
		t.Fatalf("want values %v, got %v", want, body.Values)
	}
}

func TestGoogleGateway_ReadRangeKeepsShortRows(t *testing.T) {
	var path string
	gw := newTestGateway(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"range":"'12.05'!A1:G32","values":[["7.1"],[],["7.2","5"]]}`))
	})

	grid, err := gw.ReadRange(context.Background(), "12.05", DisplayRange)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if path != "/v4/spreadsheets/sid/values/'12.05'!A1:G32" {
		t.Fatalf("unexpected path %q", path)
	}
	want := [][]string{{"7.1"}, {}, {"7.2", "5"}}
	if !reflect.DeepEqual(grid, want) {
		t.Fatalf("want %v, got %v", want, grid)
	}
}

func TestGoogleGateway_ListSheetNames(t *testing.T) {
	gw := newTestGateway(t, time.Second, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"12.05"}},{"properties":{"title":"Итоги"}}]}`))
	})

	got := gw.ListSheetNames(context.Background())
	if want := []string{"12.05", "Итоги"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestGoogleGateway_ListSheetNamesServerError(t *testing.T) {
	gw := newTestGateway(t, time.Second, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
	})

	got := gw.ListSheetNames(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil list, got %#v", got)
	}
}

func TestGoogleGateway_ListSheetNamesTimeout(t *testing.T) {
	gw := newTestGateway(t, 100*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"12.05"}}]}`))
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	got := gw.ListSheetNames(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil list, got %#v", got)
	}
	if elapsed := time.Since(start); elapsed >= 300*time.Millisecond {
		t.Fatalf("call was not bounded by the timeout: %v", elapsed)
	}
}
