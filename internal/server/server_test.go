package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"microblog/internal/app"
	"microblog/internal/store"
	"microblog/pkg/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	appCore, err := app.New(app.Config{Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv, err := New(Config{App: appCore})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeAccount(t *testing.T, resp *http.Response) domain.Account {
	t.Helper()
	defer resp.Body.Close()
	var acc domain.Account
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return acc
}

func decodeMessage(t *testing.T, resp *http.Response) domain.Message {
	t.Helper()
	defer resp.Body.Close()
	var msg domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return msg
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register expected 200, got %d", resp.StatusCode)
	}
	acc := decodeAccount(t, resp)
	if acc.AccountID != 1 || acc.Username != "ada" || acc.Password != "lovelace" {
		t.Fatalf("unexpected account body: %+v", acc)
	}

	// Duplicate registration is a 400.
	resp = postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register expected 400, got %d", resp.StatusCode)
	}

	// Short password and blank username are 400s too.
	resp = postJSON(t, ts.URL+"/register", `{"username":"bob","password":"abc"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short password expected 400, got %d", resp.StatusCode)
	}
	resp = postJSON(t, ts.URL+"/register", `{"username":"","password":"password"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank username expected 400, got %d", resp.StatusCode)
	}

	// Malformed JSON never reaches the app.
	resp = postJSON(t, ts.URL+"/register", `{"username":`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad JSON expected 400, got %d", resp.StatusCode)
	}
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/login", `{"username":"ada","password":"lovelace"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	acc := decodeAccount(t, resp)
	if acc.AccountID != 1 {
		t.Fatalf("login should return the account with id, got %+v", acc)
	}

	resp = postJSON(t, ts.URL+"/login", `{"username":"ada","password":"wrong"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password expected 401, got %d", resp.StatusCode)
	}
	resp = postJSON(t, ts.URL+"/login", `{"username":"nobody","password":"lovelace"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown user expected 401, got %d", resp.StatusCode)
	}
}

func TestPostAndListMessages(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	acc := decodeAccount(t, resp)

	// Empty store lists as [], not null.
	resp = doRequest(t, http.MethodGet, ts.URL+"/messages", "")
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list expected 200, got %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("empty list should serialize as [], got %q", raw)
	}

	body := fmt.Sprintf(`{"posted_by":%d,"message_text":"hi","time_posted_epoch":1000}`, acc.AccountID)
	resp = postJSON(t, ts.URL+"/messages", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("post message expected 200, got %d", resp.StatusCode)
	}
	msg := decodeMessage(t, resp)
	if msg.MessageID == 0 || msg.MessageText != "hi" || msg.TimePostedEpoch != 1000 {
		t.Fatalf("unexpected message body: %+v", msg)
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/messages", "")
	defer resp.Body.Close()
	var msgs []domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageID != msg.MessageID {
		t.Fatalf("list should contain the posted message: %+v", msgs)
	}

	// Validation failures are 400s.
	for _, bad := range []string{
		fmt.Sprintf(`{"posted_by":%d,"message_text":"","time_posted_epoch":1}`, acc.AccountID),
		fmt.Sprintf(`{"posted_by":%d,"message_text":%q,"time_posted_epoch":1}`, acc.AccountID, strings.Repeat("x", 256)),
		`{"posted_by":9999,"message_text":"hi","time_posted_epoch":1}`,
	} {
		resp = postJSON(t, ts.URL+"/messages", bad)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q expected 400, got %d", bad, resp.StatusCode)
		}
	}
}

func TestGetMessageByID(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	acc := decodeAccount(t, resp)
	resp = postJSON(t, ts.URL+"/messages",
		fmt.Sprintf(`{"posted_by":%d,"message_text":"hi","time_posted_epoch":1000}`, acc.AccountID))
	msg := decodeMessage(t, resp)

	resp = doRequest(t, http.MethodGet, fmt.Sprintf("%s/messages/%d", ts.URL, msg.MessageID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get expected 200, got %d", resp.StatusCode)
	}
	got := decodeMessage(t, resp)
	if got != msg {
		t.Fatalf("get mismatch: got %+v want %+v", got, msg)
	}

	// Absent ids are a 200 with an empty body.
	resp = doRequest(t, http.MethodGet, ts.URL+"/messages/999", "")
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("absent get expected 200, got %d", resp.StatusCode)
	}
	if len(raw) != 0 {
		t.Fatalf("absent get should have empty body, got %q", raw)
	}

	// Non-integer ids are rejected.
	resp = doRequest(t, http.MethodGet, ts.URL+"/messages/abc", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-integer id expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteMessageEndpointIsIdempotent(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	acc := decodeAccount(t, resp)
	resp = postJSON(t, ts.URL+"/messages",
		fmt.Sprintf(`{"posted_by":%d,"message_text":"bye","time_posted_epoch":7}`, acc.AccountID))
	msg := decodeMessage(t, resp)

	url := fmt.Sprintf("%s/messages/%d", ts.URL, msg.MessageID)
	resp = doRequest(t, http.MethodDelete, url, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete expected 200, got %d", resp.StatusCode)
	}
	deleted := decodeMessage(t, resp)
	if deleted != msg {
		t.Fatalf("delete should return the pre-delete row: %+v", deleted)
	}

	// Repeat delete: still 200, empty body.
	resp = doRequest(t, http.MethodDelete, url, "")
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat delete expected 200, got %d", resp.StatusCode)
	}
	if len(raw) != 0 {
		t.Fatalf("repeat delete should have empty body, got %q", raw)
	}
}

func TestPatchMessageEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	acc := decodeAccount(t, resp)
	resp = postJSON(t, ts.URL+"/messages",
		fmt.Sprintf(`{"posted_by":%d,"message_text":"before","time_posted_epoch":55}`, acc.AccountID))
	msg := decodeMessage(t, resp)

	url := fmt.Sprintf("%s/messages/%d", ts.URL, msg.MessageID)
	resp = doRequest(t, http.MethodPatch, url, `{"message_text":"after"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch expected 200, got %d", resp.StatusCode)
	}
	updated := decodeMessage(t, resp)
	if updated.MessageText != "after" {
		t.Fatalf("text not updated: %+v", updated)
	}
	if updated.PostedBy != msg.PostedBy || updated.TimePostedEpoch != msg.TimePostedEpoch {
		t.Fatalf("patch must only touch message_text: %+v", updated)
	}

	// Absent id and invalid text are 400s.
	resp = doRequest(t, http.MethodPatch, ts.URL+"/messages/999", `{"message_text":"x"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("absent patch expected 400, got %d", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodPatch, url, `{"message_text":""}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank patch expected 400, got %d", resp.StatusCode)
	}
}

func TestAccountMessagesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", `{"username":"ada","password":"lovelace"}`)
	ada := decodeAccount(t, resp)
	resp = postJSON(t, ts.URL+"/register", `{"username":"grace","password":"hopper"}`)
	grace := decodeAccount(t, resp)

	resp = postJSON(t, ts.URL+"/messages",
		fmt.Sprintf(`{"posted_by":%d,"message_text":"ada says","time_posted_epoch":1}`, ada.AccountID))
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/messages",
		fmt.Sprintf(`{"posted_by":%d,"message_text":"grace says","time_posted_epoch":2}`, grace.AccountID))
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, fmt.Sprintf("%s/accounts/%d/messages", ts.URL, ada.AccountID), "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("account messages expected 200, got %d", resp.StatusCode)
	}
	var msgs []domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageText != "ada says" {
		t.Fatalf("unexpected account messages: %+v", msgs)
	}

	// Unknown account: empty array, no existence check.
	resp = doRequest(t, http.MethodGet, ts.URL+"/accounts/999/messages", "")
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown account expected 200, got %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("unknown account should list as [], got %q", raw)
	}

	// Malformed paths under /accounts/ are 404s.
	resp = doRequest(t, http.MethodGet, ts.URL+"/accounts/1/other", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("bad subpath expected 404, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", resp.StatusCode)
	}
}
