package picklists

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := MountPath("/admin"); got != "/admin/api/picklists" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("admin"); got != "/admin/api/picklists" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("/admin/", WithRoutePath("api/lists/")); got != "/admin/api/lists" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestRegisterRoutes_RegistersListPattern(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := New(WithSource(nationalities())).RegisterRoutes(mux, "/fleet")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/fleet/api/picklists/{list}" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	req := httptest.NewRequest(http.MethodGet, "/fleet/api/picklists/Nationality?q=omani&limit=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	payload := decode(t, rec)
	if len(payload.Data) != 1 || payload.Data[0].Value != "OM" {
		t.Fatalf("unexpected results: %#v", payload.Data)
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}
