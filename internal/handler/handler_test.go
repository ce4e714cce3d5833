package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos-sales/internal/backend"
	"pos-sales/internal/model"
	"pos-sales/internal/session"
)

func testHandler(t *testing.T, mock *backend.Mock) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewRegistry(mock, 0, time.Millisecond, logger)
	t.Cleanup(sessions.Stop)
	return New(sessions, mock, logger).Routes()
}

// catalogMock serves a fixed product table for lookups and prefix search.
func catalogMock() *backend.Mock {
	products := map[int64]model.Product{
		7:  {ID: 7, Name: "Widget", Price: 500, Quantity: 10},
		9:  {ID: 9, Name: "Widget XL", Price: 800, Quantity: 4},
		12: {ID: 12, Name: "Gadget", Price: 1250, Quantity: 2},
	}
	return &backend.Mock{
		GetProductFunc: func(ctx context.Context, id int64) (*model.Product, error) {
			p, ok := products[id]
			if !ok {
				return nil, model.NewProductNotFoundError(id)
			}
			return &p, nil
		},
		SearchProductsFunc: func(ctx context.Context, query string) ([]model.Product, error) {
			var matches []model.Product
			for _, id := range []int64{7, 9, 12} {
				p := products[id]
				if len(query) <= len(p.Name) && p.Name[:len(query)] == query {
					matches = append(matches, p)
				}
			}
			return matches, nil
		},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func openSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w := doJSON(t, h, "POST", "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("open session status = %d", w.Code)
	}
	var resp openSessionResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.SessionID == "" {
		t.Fatal("empty session id")
	}
	return resp.SessionID
}

func getErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return resp.Error.Code
}

func TestWriteErrorWrapsUnexpected(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Handler{logger: logger}

	w := httptest.NewRecorder()
	h.writeError(w, errors.New("boom"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := getErrorCode(t, w); got != "internal_error" {
		t.Errorf("code = %q, want internal_error", got)
	}
}

func TestHandleHealth(t *testing.T) {
	h := testHandler(t, &backend.Mock{})

	for _, path := range []string{"/health", "/healthz"} {
		w := doJSON(t, h, "GET", path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
		var resp healthResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Status != "ok" {
			t.Errorf("%s status = %q, want ok", path, resp.Status)
		}
	}
}

func TestHandleAbout(t *testing.T) {
	h := testHandler(t, &backend.Mock{})

	w := doJSON(t, h, "GET", "/about", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp aboutResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Name != "pos-sales" {
		t.Errorf("name = %q", resp.Name)
	}
	if len(resp.PaymentMethods) != 4 {
		t.Errorf("payment methods = %v", resp.PaymentMethods)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := testHandler(t, &backend.Mock{})

	sid := openSession(t, h)

	w := doJSON(t, h, "GET", "/sessions/"+sid+"/cart", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get cart status = %d", w.Code)
	}
	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 0 || view.Total != 0 {
		t.Errorf("new cart = %+v, want empty", view)
	}

	w = doJSON(t, h, "DELETE", "/sessions/"+sid, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("close status = %d, want 204", w.Code)
	}

	w = doJSON(t, h, "GET", "/sessions/"+sid+"/cart", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cart after close status = %d, want 404", w.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	h := testHandler(t, &backend.Mock{})

	w := doJSON(t, h, "GET", "/sessions/nope/cart", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if code := getErrorCode(t, w); code != "not_found" {
		t.Errorf("error code = %q", code)
	}
}

func TestAddItemByID(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items",
		addItemRequest{Code: "7", Quantity: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 1 {
		t.Fatalf("items = %+v", view.Items)
	}
	if view.Items[0].Name != "Widget" || view.Items[0].Quantity != 2 {
		t.Errorf("line = %+v", view.Items[0])
	}
	if view.Total != 1000 {
		t.Errorf("total = %d, want 1000", view.Total)
	}
}

func TestAddItemMergesLines(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7", Quantity: 2})
	w := doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7"})

	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 1 || view.Items[0].Quantity != 3 {
		t.Errorf("cart = %+v, want one line of 3", view)
	}
}

func TestAddItemByNameFragment(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "Gadget"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 1 || view.Items[0].ProductID != 12 {
		t.Errorf("cart = %+v", view)
	}
}

func TestAddItemAmbiguous(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	// "Widget" prefixes both Widget and Widget XL.
	w := doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "Widget"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if code := getErrorCode(t, w); code != "ambiguous_product" {
		t.Errorf("error code = %q", code)
	}

	// Cart stays empty after the failed add.
	w = doJSON(t, h, "GET", "/sessions/"+sid+"/cart", nil)
	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 0 {
		t.Errorf("cart = %+v, want empty", view)
	}
}

func TestAddItemNoMatch(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "Zilch"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAddItemUnknownID(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "999"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if code := getErrorCode(t, w); code != "product_not_found" {
		t.Errorf("error code = %q", code)
	}
}

func TestAddItemInvalidBody(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	req := httptest.NewRequest("POST", "/sessions/"+sid+"/cart/items",
		bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7"})
	w := doJSON(t, h, "PUT", "/sessions/"+sid+"/cart/items/7", updateItemRequest{Quantity: 5})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if view.Items[0].Quantity != 5 || view.Total != 2500 {
		t.Errorf("cart = %+v", view)
	}
}

func TestUpdateItemZeroRemoves(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7"})
	w := doJSON(t, h, "PUT", "/sessions/"+sid+"/cart/items/7", updateItemRequest{Quantity: 0})

	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 0 || view.Total != 0 {
		t.Errorf("cart = %+v, want empty", view)
	}
}

func TestRemoveItem(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7"})
	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "12"})

	w := doJSON(t, h, "DELETE", "/sessions/"+sid+"/cart/items/7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 1 || view.Items[0].ProductID != 12 {
		t.Errorf("cart = %+v", view)
	}
}

func TestUpdateItemBadProductID(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	w := doJSON(t, h, "PUT", "/sessions/"+sid+"/cart/items/abc", updateItemRequest{Quantity: 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSuggest(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	w := doJSON(t, h, "GET", "/sessions/"+sid+"/suggest?q=Widget", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp suggestResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Stale {
		t.Error("sole query reported stale")
	}
	if len(resp.Matches) != 2 {
		t.Errorf("matches = %+v, want 2", resp.Matches)
	}
}

func TestSuggestIndependentAcrossSessions(t *testing.T) {
	h := testHandler(t, catalogMock())
	sidA := openSession(t, h)
	sidB := openSession(t, h)

	// Latest-wins applies within one register's input stream. A sole query
	// at one register is never superseded by typing at another.
	type reply struct {
		code int
		resp suggestResponse
	}
	replies := make(chan reply, 2)
	run := func(sid, q string) {
		req := httptest.NewRequest("GET", "/sessions/"+sid+"/suggest?q="+q, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		var resp suggestResponse
		json.NewDecoder(w.Body).Decode(&resp)
		replies <- reply{w.Code, resp}
	}
	go run(sidA, "Widget")
	go run(sidB, "Gadget")

	for i := 0; i < 2; i++ {
		r := <-replies
		if r.code != http.StatusOK {
			t.Fatalf("status = %d", r.code)
		}
		if r.resp.Stale {
			t.Errorf("query %q reported stale with no newer query in its session", r.resp.Query)
		}
		if len(r.resp.Matches) == 0 {
			t.Errorf("query %q returned no matches", r.resp.Query)
		}
	}
}

func TestCheckoutFlow(t *testing.T) {
	mock := catalogMock()
	mock.SubmitCheckoutFunc = func(ctx context.Context, req *model.CheckoutRequest) (*model.Receipt, error) {
		if req.PaymentMethod != model.PaymentCash {
			t.Errorf("payment method = %q, want cash default", req.PaymentMethod)
		}
		return &model.Receipt{
			TransactionID: 4001,
			TotalAmount:   1000,
			PaymentMethod: req.PaymentMethod,
			Warnings:      []string{"low stock: Widget (8 left)"},
		}, nil
	}

	h := testHandler(t, mock)
	sid := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7", Quantity: 2})

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/checkout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var receipt model.Receipt
	json.NewDecoder(w.Body).Decode(&receipt)
	if receipt.TransactionID != 4001 {
		t.Errorf("transaction id = %d", receipt.TransactionID)
	}
	if len(receipt.Warnings) != 1 {
		t.Errorf("warnings = %v", receipt.Warnings)
	}

	// Success clears the cart even with warnings present.
	w = doJSON(t, h, "GET", "/sessions/"+sid+"/cart", nil)
	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 0 {
		t.Errorf("cart after checkout = %+v, want empty", view)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	mock := catalogMock()
	h := testHandler(t, mock)
	sid := openSession(t, h)

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/checkout", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := getErrorCode(t, w); code != "empty_cart" {
		t.Errorf("error code = %q", code)
	}
	if mock.SubmitCheckoutCalls != 0 {
		t.Error("empty cart reached the backend")
	}
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	mock := catalogMock()
	mock.SubmitCheckoutFunc = func(ctx context.Context, req *model.CheckoutRequest) (*model.Receipt, error) {
		return nil, model.NewCheckoutFailedError("Widget: requested 2, available 1", nil)
	}

	h := testHandler(t, mock)
	sid := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7", Quantity: 2})

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/checkout", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	w = doJSON(t, h, "GET", "/sessions/"+sid+"/cart", nil)
	var view model.CartView
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.Items) != 1 || view.Total != 1000 {
		t.Errorf("cart after failed checkout = %+v, want untouched", view)
	}
}

func TestCheckoutInvalidPaymentMethod(t *testing.T) {
	mock := catalogMock()
	h := testHandler(t, mock)
	sid := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7"})

	w := doJSON(t, h, "POST", "/sessions/"+sid+"/checkout",
		checkoutRequest{PaymentMethod: "barter"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if mock.SubmitCheckoutCalls != 0 {
		t.Error("invalid payment method reached the backend")
	}
}

func TestCancelFlow(t *testing.T) {
	h := testHandler(t, catalogMock())
	sid := openSession(t, h)

	cancel := func(confirm bool) cancelResponse {
		w := doJSON(t, h, "POST", "/sessions/"+sid+"/cancel", cancelRequest{Confirm: confirm})
		if w.Code != http.StatusOK {
			t.Fatalf("cancel status = %d", w.Code)
		}
		var resp cancelResponse
		json.NewDecoder(w.Body).Decode(&resp)
		return resp
	}

	// Empty cart: nothing to discard.
	if resp := cancel(true); resp.Outcome != "noop" {
		t.Errorf("outcome = %q, want noop", resp.Outcome)
	}

	doJSON(t, h, "POST", "/sessions/"+sid+"/cart/items", addItemRequest{Code: "7"})

	// Unconfirmed cancel leaves the cart alone.
	resp := cancel(false)
	if resp.Outcome != "declined" {
		t.Errorf("outcome = %q, want declined", resp.Outcome)
	}
	if len(resp.Cart.Items) != 1 {
		t.Errorf("cart = %+v, want untouched", resp.Cart)
	}

	// Confirmed cancel discards it.
	resp = cancel(true)
	if resp.Outcome != "cleared" {
		t.Errorf("outcome = %q, want cleared", resp.Outcome)
	}
	if len(resp.Cart.Items) != 0 {
		t.Errorf("cart = %+v, want empty", resp.Cart)
	}
}

func TestConcurrentSessionsDoNotInterfere(t *testing.T) {
	h := testHandler(t, catalogMock())
	a := openSession(t, h)
	b := openSession(t, h)

	doJSON(t, h, "POST", "/sessions/"+a+"/cart/items", addItemRequest{Code: "7"})
	doJSON(t, h, "POST", "/sessions/"+b+"/cart/items", addItemRequest{Code: "12", Quantity: 2})

	for _, tc := range []struct {
		sid   string
		total int64
	}{
		{a, 500},
		{b, 2500},
	} {
		w := doJSON(t, h, "GET", fmt.Sprintf("/sessions/%s/cart", tc.sid), nil)
		var view model.CartView
		json.NewDecoder(w.Body).Decode(&view)
		if view.Total != tc.total {
			t.Errorf("session %s total = %d, want %d", tc.sid, view.Total, tc.total)
		}
	}
}
