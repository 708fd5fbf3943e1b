package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/config"
	appmw "github.com/shinyyama/carbon-credit-backend/internal/middleware"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2024, 6, 11, 9, 30, 0, 0, time.UTC) }

type fixedRand struct{}

func (fixedRand) IntN(int) int { return 5 }

type testServer struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		VerifyBaseURL:       "https://verify.example.org",
		InitialLoginBalance: 42,
		LedgerWriteRetries:  1,
		OfficialUsername:    "official",
		OfficialPassword:    "password",
	}
	s := New(Deps{
		Config: cfg,
		Store:  repository.NewMemoryKVStore(),
		Auth:   appmw.NewAuthMiddlewareWithVerifier(nil),
		Logger: zap.NewNop(),
		Clock:  fixedClock{},
		Rand:   fixedRand{},
	})
	return &testServer{t: t, h: s.Handler()}
}

var officialHeaders = map[string]string{appmw.HeaderUserID: "official-1", appmw.HeaderUserRole: appmw.RoleOfficial}

func (ts *testServer) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r *bytes.Reader
	switch b := body.(type) {
	case nil:
		r = bytes.NewReader(nil)
	case *multipartBody:
		r = bytes.NewReader(b.buf.Bytes())
		headers = merge(headers, map[string]string{"Content-Type": b.contentType})
	default:
		raw, err := json.Marshal(b)
		require.NoError(ts.t, err)
		r = bytes.NewReader(raw)
		headers = merge(headers, map[string]string{"Content-Type": "application/json"})
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	return rec
}

func merge(a, b map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

type multipartBody struct {
	buf         bytes.Buffer
	contentType string
}

func newMultipart(t *testing.T, fields map[string]string, files map[string]string) *multipartBody {
	t.Helper()
	mb := &multipartBody{}
	w := multipart.NewWriter(&mb.buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		fw, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("not really an image"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	mb.contentType = w.FormDataContentType()
	return mb
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func certificateBody() map[string]string {
	return map[string]string{
		"farmerName":  "Ravi Kumar",
		"farmerId":    "F-001",
		"landId":      "PLOT-17",
		"cropType":    "rice",
		"landArea":    "2.5",
		"visitDate":   "2024-06-10",
		"officerName": "S. Das",
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestOfficialCertificateLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/officials/login", map[string]string{"username": "official", "password": "password"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, "/api/officials/login", map[string]string{"username": "official", "password": "nope"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/certificates", certificateBody(), officialHeaders)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cert := decode[model.Certificate](t, rec)
	assert.Equal(t, model.CertificateStatusActive, cert.Status)

	rec = ts.do(http.MethodGet, "/api/certificates?q=ravi&status=active", nil, officialHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = ts.do(http.MethodGet, "/api/certificates/"+cert.CertificateID+"/text", nil, officialHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Verification URL: https://verify.example.org/verify/"+cert.CertificateID)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "certificate-Ravi-Kumar-")

	rec = ts.do(http.MethodGet, "/api/certificates/"+cert.CertificateID+"/pdf", nil, officialHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = ts.do(http.MethodPost, "/api/certificates/"+cert.CertificateID+"/publish", nil, officialHeaders)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(http.MethodGet, "/api/verify/"+cert.CertificateID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)

	rec = ts.do(http.MethodPost, "/api/certificates/"+cert.CertificateID+"/revoke", nil, officialHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, "/api/certificates/"+cert.CertificateID+"/revoke", nil, officialHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/verify?token="+cert.QRCode, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"revoked"`)

	rec = ts.do(http.MethodGet, "/api/certificates/stats", nil, officialHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":1,"active":0,"revoked":1}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/certificates/CERT-NOPE", nil, officialHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCertificateRoutesRequireOfficial(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/certificates", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(http.MethodGet, "/api/certificates", nil, map[string]string{appmw.HeaderUserID: "farmer"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := certificateBody()
	body["visitDate"] = "yesterday"
	rec = ts.do(http.MethodPost, "/api/certificates", body, officialHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestFarmerFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/session/login", map[string]string{"email": "asha@example.org", "password": "pw"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decode[struct {
		User    model.UserProfile `json:"user"`
		Balance int64             `json:"carbonBalance"`
	}](t, rec)
	assert.Equal(t, int64(42), session.Balance)
	farmer := map[string]string{appmw.HeaderUserID: session.User.ID}

	rec = ts.do(http.MethodGet, "/api/me", nil, farmer)
	require.Equal(t, http.StatusOK, rec.Code)

	mp := newMultipart(t, map[string]string{"area": "2", "trees": "10", "cropType": "rice", "lat": "20.3", "lng": "85.8"}, map[string]string{"photos": "field.jpg"})
	rec = ts.do(http.MethodPost, "/api/me/submissions", mp, farmer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"credits":30`)
	assert.Contains(t, rec.Body.String(), `"carbonBalance":72`)

	mp = newMultipart(t, map[string]string{"area": "2"}, nil)
	rec = ts.do(http.MethodPost, "/api/me/submissions", mp, farmer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/certificates", certificateBody(), officialHeaders)
	require.Equal(t, http.StatusCreated, rec.Code)
	cert := decode[model.Certificate](t, rec)

	rec = ts.do(http.MethodPost, "/api/me/certificate-validations", map[string]string{"token": cert.CertificateID}, farmer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"credits":15`)
	assert.Contains(t, rec.Body.String(), `"carbonBalance":87`)

	rec = ts.do(http.MethodPost, "/api/me/certificate-validations", map[string]string{"token": cert.CertificateID}, farmer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"already_redeemed"`)

	rec = ts.do(http.MethodGet, "/api/me/credits", nil, farmer)
	require.Equal(t, http.StatusOK, rec.Code)
	credits := decode[struct {
		Balance int64 `json:"carbonBalance"`
		History []struct {
			Activity    string `json:"activity"`
			Type        string `json:"type"`
			Coordinates string `json:"coordinates"`
		} `json:"history"`
	}](t, rec)
	assert.Equal(t, int64(87), credits.Balance)
	require.Len(t, credits.History, 2)
	assert.Equal(t, "other", credits.History[0].Type)
	assert.Equal(t, "rice", credits.History[1].Type)
	assert.Equal(t, "20.3000°N, 85.8000°E", credits.History[1].Coordinates)

	rec = ts.do(http.MethodGet, "/api/me/report.pdf", nil, farmer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = ts.do(http.MethodPost, "/api/session/logout", nil, farmer)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, "/api/me", nil, farmer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEstimateAndExtract(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/credits/estimate", map[string]string{"area": "2.5 acres", "trees": "15"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"area":2.5,"trees":15,"credits":42}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/credits/estimate", map[string]string{"area": "100000000000000000000", "trees": "1"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")

	mp := newMultipart(t, nil, map[string]string{"file": "farm.pdf"})
	rec = ts.do(http.MethodPost, "/api/documents/extract", mp, map[string]string{appmw.HeaderUserID: "u1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(http.MethodGet, "/api/verify", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllowOrigin(t *testing.T) {
	allow := allowOrigin("https://carbon.example.org")
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:5173", true},
		{"https://carbon.example.org", true},
		{"https://evil.example.org", false},
		{"ftp://carbon.example.org", false},
	}
	for _, tt := range tests {
		got, err := allow(tt.origin)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.origin)
	}
}
