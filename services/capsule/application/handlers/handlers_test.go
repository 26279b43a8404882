package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/timecapsule/pkg/identity"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
	"github.com/ghuser/timecapsule/services/capsule/infrastructure/persistence/memory"
)

type stubPayments struct{ err error }

func (s stubPayments) Pay(context.Context, string, models.Amount, models.Network) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

type stubContent struct{}

func (stubContent) Store(_ context.Context, c models.Content) (models.ContentRef, error) {
	return models.ContentRef("http://cdn/capsules/x" + c.Extension()), nil
}

// newRouter mounts the capsule handlers the way the api package does, with
// the caller's identity injected in place of the session middleware.
func newRouter(t *testing.T, payErr error) (*chi.Mux, *uuid.UUID) {
	t.Helper()
	engine := appsvcs.NewEngine(appsvcs.EngineDeps{
		Repo:     memory.NewCapsuleRepository(),
		Payments: stubPayments{err: payErr},
		Content:  stubContent{},
	}, appsvcs.EngineConfig{
		Recipient:       "0x1111111111111111111111111111111111111111",
		CreationFees:    map[models.Network]models.Amount{models.NetworkBNB: models.MustAmount("0.001"), models.NetworkETH: models.MustAmount("0.0003")},
		FloorBid:        models.MustAmount("0.1"),
		PlatformFeeBps:  200,
		BidAttempts:     3,
		PersistAttempts: 1,
	})
	svcs := &appsvcs.Services{Engine: engine}

	caller := new(uuid.UUID)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if *caller != uuid.Nil {
				req = req.WithContext(identity.With(req.Context(), identity.Identity{
					UserID:        *caller,
					WalletAddress: "0x2222222222222222222222222222222222222222",
				}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", func(r chi.Router) {
		r.Route("/capsules", func(r chi.Router) {
			r.Post("/", NewPostCapsuleHandler(svcs, false).Execute)
			r.Get("/{id}", NewGetCapsuleHandler(svcs, false).Execute)
			r.Get("/{id}/bids", NewGetBidsHandler(svcs, false).Execute)
			r.Post("/{id}/bids", NewPostBidHandler(svcs, false).Execute)
			r.Post("/{id}/bids/{bidID}/resolve", NewPostResolveHandler(svcs, false).Execute)
		})
	})
	return r, caller
}

func capsuleForm(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(image)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"name":            "Letter to 2030",
		"open_at":         time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"network":         "bnb",
		"auction_enabled": "true",
		"message":         "hello future",
	}
}

func do(r http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createCapsule(t *testing.T, r http.Handler) CreateCapsuleResponse {
	t.Helper()
	body, ct := capsuleForm(t, validFields(), nil)
	rec := do(r, http.MethodPost, "/api/capsules", body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[CreateCapsuleResponse](t, rec)
}

func TestPostCapsule_Created(t *testing.T) {
	r, caller := newRouter(t, nil)
	*caller = uuid.New()

	resp := createCapsule(t, r)

	if resp.TxID == "" || resp.Capsule.PaymentTxID != resp.TxID {
		t.Fatalf("expected tx id in response: %+v", resp)
	}
	if resp.Capsule.Status != "LOCKED" || resp.Capsule.ContentRef != nil {
		t.Fatalf("new capsule must be LOCKED with hidden content: %+v", resp.Capsule)
	}
	if resp.Capsule.Network != "BNB" || resp.Capsule.CurrentBid != "0.1" || !resp.Capsule.AuctionEnabled {
		t.Fatalf("unexpected capsule: %+v", resp.Capsule)
	}
}

func TestPostCapsule_WithImage(t *testing.T) {
	r, caller := newRouter(t, nil)
	*caller = uuid.New()

	fields := validFields()
	delete(fields, "message")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	body, ct := capsuleForm(t, fields, png)

	rec := do(r, http.MethodPost, "/api/capsules", body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestPostCapsule_Errors(t *testing.T) {
	tests := []struct {
		name       string
		anonymous  bool
		payErr     error
		mutate     func(map[string]string)
		wantStatus int
		wantField  string
	}{
		{"anonymous", true, nil, nil, http.StatusUnauthorized, ""},
		{"missing name", false, nil, func(f map[string]string) { delete(f, "name") }, http.StatusUnprocessableEntity, "name"},
		{"bad open_at", false, nil, func(f map[string]string) { f["open_at"] = "tomorrow" }, http.StatusUnprocessableEntity, "open_at"},
		{"bad network", false, nil, func(f map[string]string) { f["network"] = "SOL" }, http.StatusUnprocessableEntity, "network"},
		{"past open_at", false, nil, func(f map[string]string) { f["open_at"] = "2001-01-01T00:00:00Z" }, http.StatusUnprocessableEntity, ""},
		{"payment rejected", false, &capsuledomain.PaymentError{Reason: capsuledomain.PaymentUserRejected}, nil, http.StatusPaymentRequired, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, caller := newRouter(t, tt.payErr)
			if !tt.anonymous {
				*caller = uuid.New()
			}
			fields := validFields()
			if tt.mutate != nil {
				tt.mutate(fields)
			}
			body, ct := capsuleForm(t, fields, nil)

			rec := do(r, http.MethodPost, "/api/capsules", body, ct)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantField != "" {
				resp := decode[map[string]any](t, rec)
				fields, _ := resp["fields"].(map[string]any)
				if _, ok := fields[tt.wantField]; !ok {
					t.Fatalf("expected field error for %s, got %v", tt.wantField, resp)
				}
			}
			if tt.payErr != nil {
				resp := decode[PaymentErrorResponse](t, rec)
				if resp.Reason != string(capsuledomain.PaymentUserRejected) {
					t.Fatalf("reason = %q", resp.Reason)
				}
			}
		})
	}
}

func TestGetCapsule(t *testing.T) {
	r, caller := newRouter(t, nil)
	*caller = uuid.New()
	created := createCapsule(t, r)

	rec := do(r, http.MethodGet, "/api/capsules/"+created.Capsule.ID.String(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	got := decode[CapsuleResponse](t, rec)
	if got.ContentRef != nil || got.MinimumBid != "0.11" {
		t.Fatalf("unexpected view: %+v", got)
	}

	if rec := do(r, http.MethodGet, "/api/capsules/"+uuid.NewString(), nil, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown capsule: status %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/api/capsules/not-a-uuid", nil, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status %d", rec.Code)
	}
}

func TestBidFlow(t *testing.T) {
	r, caller := newRouter(t, nil)
	creator := uuid.New()
	*caller = creator
	created := createCapsule(t, r)
	base := "/api/capsules/" + created.Capsule.ID.String()

	bid := func(amount string) *httptest.ResponseRecorder {
		return do(r, http.MethodPost, base+"/bids", bytes.NewBufferString(fmt.Sprintf(`{"amount":%q}`, amount)), "application/json")
	}

	if rec := bid("1"); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("self bid: status %d", rec.Code)
	}

	*caller = uuid.New()
	rec := bid("0.1")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("low bid: status %d", rec.Code)
	}
	if low := decode[BidTooLowResponse](t, rec); low.Minimum != "0.11" {
		t.Fatalf("minimum = %q", low.Minimum)
	}
	if rec := bid("-1"); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative bid: status %d", rec.Code)
	}

	rec = bid("0.11")
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid bid: status %d body %s", rec.Code, rec.Body.String())
	}
	placed := decode[BidResponse](t, rec)

	*caller = uuid.New()
	if rec := bid("0.2"); rec.Code != http.StatusCreated {
		t.Fatalf("second bid: status %d", rec.Code)
	}

	list := decode[ListBidsResponse](t, do(r, http.MethodGet, base+"/bids", nil, ""))
	if len(list.Bids) != 2 || list.Bids[0].Amount != "0.2" {
		t.Fatalf("unexpected bids: %+v", list.Bids)
	}

	resolve := func(bidID uuid.UUID, accept bool) *httptest.ResponseRecorder {
		return do(r, http.MethodPost, base+"/bids/"+bidID.String()+"/resolve", bytes.NewBufferString(fmt.Sprintf(`{"accept":%t}`, accept)), "application/json")
	}

	if rec := resolve(placed.ID, true); rec.Code != http.StatusForbidden {
		t.Fatalf("non-creator resolve: status %d", rec.Code)
	}

	*caller = creator
	rec = resolve(placed.ID, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: status %d body %s", rec.Code, rec.Body.String())
	}
	res := decode[ResolveBidResponse](t, rec)
	if res.Capsule.Status != "OPEN" || res.Capsule.ContentRef == nil || res.Proceeds == nil || res.Proceeds.PlatformFee != "0.0022" {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	if rec := resolve(placed.ID, false); rec.Code != http.StatusConflict {
		t.Fatalf("resolve after open: status %d", rec.Code)
	}
}

func TestResolve_RequiresDecision(t *testing.T) {
	r, caller := newRouter(t, nil)
	*caller = uuid.New()
	created := createCapsule(t, r)

	rec := do(r, http.MethodPost, "/api/capsules/"+created.Capsule.ID.String()+"/bids/"+uuid.NewString()+"/resolve", bytes.NewBufferString(`{}`), "application/json")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", rec.Code)
	}
}
