package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fleetform/pkg/config"
	"github.com/goliatone/go-fleetform/pkg/listquery"
	"github.com/goliatone/go-fleetform/pkg/logging"
	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/orchestrator"
)

type nopProvider struct{}

func (nopProvider) GetLogger(string) logging.Logger { return logging.NoOp() }

type portal struct {
	picklistCalls atomic.Int32
	openapiCalls  atomic.Int32

	// contractStarted and contractRelease hold the vehicle contract fetch
	// open when set.
	contractStarted chan struct{}
	contractRelease chan struct{}
}

const vehicleContract = `{
  "openapi": "3.0.1",
  "info": {"title": "Vehicle", "version": "v1.0"},
  "paths": {
    "/o/c/vehicles/": {
      "post": {
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {"type": "object", "properties": {"vin": {"type": "string"}}}
            }
          }
        },
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func (p *portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/o/headless-admin-list-type/v1.0/list-type-definitions":
		p.picklistCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []any{map[string]any{
				"name": "VehicleType",
				"listTypeEntries": []any{
					map[string]any{"key": "Car", "name": "Car"},
					map[string]any{"key": "Bus", "name": "Bus"},
					map[string]any{"key": "SUV", "name": "SUV"},
				},
			}},
		})
	case r.URL.Path == "/o/c/vehicles/openapi.json":
		p.openapiCalls.Add(1)
		if p.contractRelease != nil {
			p.contractStarted <- struct{}{}
			<-p.contractRelease
		}
		_, _ = io.WriteString(w, vehicleContract)
	case r.URL.Path == "/o/c/vehicles/":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []any{map[string]any{
				"id":          float64(41),
				"plateNumber": "AB 1234",
				"vin":         "1HGCM82633A004352",
				"vehicleType": map[string]any{"key": "SUV", "name": "SUV"},
				"carYear":     float64(2020),
			}},
			"page":       1,
			"pageSize":   20,
			"totalCount": 1,
			"lastPage":   1,
		})
	case r.URL.Path == "/o/c/fleet-drivers/5":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           float64(5),
			"phone":        "91234567",
			"driverStatus": map[string]any{"key": "Active", "name": "Active"},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"status":"NOT_FOUND","title":"not found"}`)
	}
}

func newOrchestrator(t *testing.T, mutate func(*config.Config), opts ...orchestrator.Option) (*orchestrator.Orchestrator, *portal) {
	t.Helper()
	return newOrchestratorFor(t, &portal{}, mutate, opts...)
}

func newOrchestratorFor(t *testing.T, backend *portal, mutate func(*config.Config), opts ...orchestrator.Option) (*orchestrator.Orchestrator, *portal) {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.BaseURL = server.URL
	if mutate != nil {
		mutate(&cfg)
	}
	all := append([]orchestrator.Option{orchestrator.WithLoggerProvider(nopProvider{})}, opts...)
	o, err := orchestrator.New(context.Background(), cfg, all...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := o.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return o, backend
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := orchestrator.New(context.Background(), config.DefaultConfig())
	if !errors.Is(err, config.ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
}

func TestFormsAreRegistered(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	if diff := cmp.Diff([]string{"driver", "vehicle"}, o.Forms()); diff != "" {
		t.Fatalf("forms mismatch (-want +got):\n%s", diff)
	}
	if _, err := o.Blueprint("trailer"); err == nil {
		t.Fatalf("expected unknown form to fail")
	}
}

func TestSessionLoadsRecordFromConfiguredCollection(t *testing.T) {
	o, _ := newOrchestrator(t, func(cfg *config.Config) {
		cfg.Collections.Drivers = "fleet-drivers"
	})

	session, err := o.Session(context.Background(), "driver", model.Host{RecordID: 5})
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	t.Cleanup(session.Close)

	if !session.EditMode() {
		t.Fatalf("expected edit mode")
	}
	if got, _ := session.Value("phone"); got != "91234567" {
		t.Fatalf("expected restored phone, got %#v", got)
	}
	if got := session.Host().Locale; got != model.LocaleEnglish {
		t.Fatalf("expected default locale, got %q", got)
	}
}

func TestSessionLoadFailureIsReturned(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	if _, err := o.Session(context.Background(), "driver", model.Host{RecordID: 99}); err == nil {
		t.Fatalf("expected load failure")
	}
}

func TestContractIsFetchedOncePerCollection(t *testing.T) {
	o, backend := newOrchestrator(t, func(cfg *config.Config) {
		cfg.Contracts.Enabled = true
	})
	for i := 0; i < 2; i++ {
		session, err := o.Session(context.Background(), "vehicle", model.Host{})
		if err != nil {
			t.Fatalf("Session: %v", err)
		}
		session.Close()
	}
	if got := backend.openapiCalls.Load(); got != 1 {
		t.Fatalf("expected one contract fetch, got %d", got)
	}
}

func TestSlowContractDoesNotBlockOtherCollections(t *testing.T) {
	backend := &portal{
		contractStarted: make(chan struct{}, 1),
		contractRelease: make(chan struct{}),
	}
	o, _ := newOrchestratorFor(t, backend, func(cfg *config.Config) {
		cfg.Contracts.Enabled = true
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	vehicleErrs := make(chan error, 2)
	mount := func() {
		defer wg.Done()
		session, err := o.Session(ctx, "vehicle", model.Host{})
		if err == nil {
			session.Close()
		}
		vehicleErrs <- err
	}
	wg.Add(1)
	go mount()
	<-backend.contractStarted

	wg.Add(1)
	go mount()

	driverDone := make(chan error, 1)
	go func() {
		session, err := o.Session(ctx, "driver", model.Host{})
		if err == nil {
			session.Close()
		}
		driverDone <- err
	}()
	select {
	case err := <-driverDone:
		if err != nil {
			t.Fatalf("driver session: %v", err)
		}
	case <-time.After(5 * time.Second):
		close(backend.contractRelease)
		t.Fatalf("driver session waited on the vehicle contract fetch")
	}

	close(backend.contractRelease)
	wg.Wait()
	close(vehicleErrs)
	for err := range vehicleErrs {
		if err != nil {
			t.Fatalf("vehicle session: %v", err)
		}
	}
	if got := backend.openapiCalls.Load(); got != 1 {
		t.Fatalf("expected one vehicle contract fetch, got %d", got)
	}
}

func TestEntriesBuildsTable(t *testing.T) {
	o, _ := newOrchestrator(t, nil)

	table, err := o.Entries(context.Background(), "vehicle", listquery.Default(), "")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if table.Total != 1 || table.TotalPages != 1 || len(table.Rows) != 1 {
		t.Fatalf("unexpected table %#v", table)
	}
	got := []string{table.Rows[0][0].Text, table.Rows[0][1].Text, table.Rows[0][3].Text}
	if diff := cmp.Diff([]string{"41", "AB 1234", "SUV"}, got); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestPicklistsServeFromCache(t *testing.T) {
	o, backend := newOrchestrator(t, nil)
	handler := o.Picklists().Handler()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/picklists/VehicleType?q=b", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"value":"Bus"`) {
			t.Fatalf("expected Bus in %s", rec.Body.String())
		}
	}
	if got := backend.picklistCalls.Load(); got != 1 {
		t.Fatalf("expected one backend fetch, got %d", got)
	}
}

func TestRedisCacheBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	o, backend := newOrchestrator(t, func(cfg *config.Config) {
		cfg.Cache.Backend = "redis"
		cfg.Cache.RedisURL = "redis://" + mr.Addr()
	})

	if got := o.Options().Get(context.Background(), "VehicleType"); len(got) != 3 {
		t.Fatalf("expected three options, got %#v", got)
	}
	if !mr.Exists("fleetform:options:VehicleType") {
		t.Fatalf("expected list stored in redis, keys=%v", mr.Keys())
	}
	if got := backend.picklistCalls.Load(); got != 1 {
		t.Fatalf("expected one backend fetch, got %d", got)
	}
}
