package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeOrchestrator struct {
	jobs         []JobDTO
	tokenCalls   atomic.Int32
	rejectToken  string
	rejectAlways bool

	mu         sync.Mutex
	lastFolder string
	lastFilter string
}

func (f *fakeOrchestrator) last() (folder, filter string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFolder, f.lastFilter
}

func (f *fakeOrchestrator) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/identity_/connect/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil || r.PostForm.Get("client_id") != "id" {
			http.Error(w, "bad client", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":3600}`, n)
	})
	mux.HandleFunc("/org/tenant/orchestrator_/odata/Jobs", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if f.rejectAlways || auth == "Bearer "+f.rejectToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.lastFolder = r.Header.Get(folderHeader)
		f.lastFilter = r.URL.Query().Get("$filter")
		f.mu.Unlock()

		top, _ := strconv.Atoi(r.URL.Query().Get("$top"))
		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
		end := skip + top
		if end > len(f.jobs) {
			end = len(f.jobs)
		}
		page := JobsPage{Value: []JobDTO{}}
		if skip < len(f.jobs) {
			page.Value = f.jobs[skip:end]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})
	return mux
}

func newTestClient(t *testing.T, srv *httptest.Server, pageSize int) Client {
	t.Helper()
	client, err := NewClient(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		FolderID:     "42",
		BaseURL:      srv.URL + "/org/tenant/orchestrator_",
		TokenURL:     srv.URL + "/identity_/connect/token",
		PageSize:     pageSize,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func sampleJobs(n int) []JobDTO {
	out := make([]JobDTO, n)
	for i := range out {
		out[i] = JobDTO{
			Key:             fmt.Sprintf("job-%d", i),
			HostMachineName: "RPA-A",
			ReleaseName:     "Invoice",
			StartTime:       fmt.Sprintf("2026-02-13T%02d:00:00.000Z", i),
			EndTime:         fmt.Sprintf("2026-02-13T%02d:30:00Z", i),
			State:           "Successful",
		}
	}
	return out
}

var (
	from = time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
)

func TestFetchJobs_Paging(t *testing.T) {
	fake := &fakeOrchestrator{jobs: sampleJobs(5)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	got, err := newTestClient(t, srv, 2).FetchJobs(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchJobs() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 jobs across pages, got %d", len(got))
	}
	if got[4].Key != "job-4" || got[4].Duration() != 30*time.Minute {
		t.Errorf("unexpected last job: %+v", got[4])
	}
	folder, filter := fake.last()
	if folder != "42" {
		t.Errorf("folder header = %q, want 42", folder)
	}
	want := "StartTime ge 2026-02-13T00:00:00Z and StartTime le 2026-02-14T23:59:59Z"
	if filter != want {
		t.Errorf("filter = %q, want %q", filter, want)
	}
	if n := fake.tokenCalls.Load(); n != 1 {
		t.Errorf("expected the token to be reused, got %d token calls", n)
	}
}

func TestFetchJobs_ExactPageBoundary(t *testing.T) {
	fake := &fakeOrchestrator{jobs: sampleJobs(4)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	got, err := newTestClient(t, srv, 2).FetchJobs(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchJobs() error = %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 jobs, got %d", len(got))
	}
}

func TestFetchJobs_ReauthenticatesOnce(t *testing.T) {
	fake := &fakeOrchestrator{jobs: sampleJobs(1), rejectToken: "tok-1"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	got, err := newTestClient(t, srv, 100).FetchJobs(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchJobs() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 job, got %d", len(got))
	}
	if n := fake.tokenCalls.Load(); n != 2 {
		t.Errorf("expected 2 token calls, got %d", n)
	}
}

func TestFetchJobs_Unauthorized(t *testing.T) {
	fake := &fakeOrchestrator{rejectAlways: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	_, err := newTestClient(t, srv, 100).FetchJobs(context.Background(), from, to)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{ClientID: "id"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{OrgSlug: "acme", Tenant: "DefaultTenant"}.withDefaults()
	if cfg.BaseURL != "https://cloud.uipath.com/acme/DefaultTenant/orchestrator_/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.TokenURL != "https://cloud.uipath.com/acme/identity_/connect/token" {
		t.Errorf("TokenURL = %q", cfg.TokenURL)
	}
	if cfg.PageSize != 100 || len(cfg.Scopes) != 3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
