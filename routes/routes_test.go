package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"event-booking-server/models"
	"event-booking-server/storage"
	"event-booking-server/testutil"
	"event-booking-server/utils"
	ws "event-booking-server/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	hub    *ws.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testutil.UseConfig(t)
	db := testutil.NewDB(t)

	proofs, err := storage.NewLocalStorage(cfg.Upload.Dir, int64(cfg.Upload.MaxSizeMB)<<20)
	require.NoError(t, err)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	router := NewRouter(Dependencies{DB: db, Config: cfg, Hub: hub, Proofs: proofs})
	return &testServer{t: t, db: db, router: router, hub: hub}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func bookingForm(t *testing.T, fields map[string]string, proofName string, proof []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if proofName != "" {
		part, err := w.CreateFormFile("paymentProof", proofName)
		require.NoError(t, err)
		_, err = part.Write(proof)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

type bookingResponse struct {
	Booking struct {
		ID         uint    `json:"id"`
		Status     string  `json:"status"`
		UserID     uint    `json:"UserId"`
		PostID     uint    `json:"PostId"`
		ImageProof *string `json:"imageProof"`
		Post       *struct {
			ID    uint   `json:"id"`
			Title string `json:"title"`
		} `json:"Post"`
		User *struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"User"`
	} `json:"booking"`
}

func TestCreateBookingThenFetchIncludesPostAndUser(t *testing.T) {
	s := newTestServer(t)

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	customer := models.User{ID: 3, Username: "customer3", Email: "c3@example.com", PasswordHash: hash}
	require.NoError(t, s.db.Create(&customer).Error)
	post := models.Post{ID: 7, Title: "Rooftop Party", Category: "party", BasePrice: decimal.NewFromInt(300)}
	require.NoError(t, s.db.Create(&post).Error)
	token := testutil.Token(t, customer)

	body, contentType := bookingForm(t, map[string]string{
		"eventDate":     "2026-12-31",
		"totalPrice":    "350.00",
		"paymentMethod": "card",
		"phoneNumber":   "0600000000",
		"address":       "7 Skyline Ave",
		"serviceId":     "7",
		"latitude":      "48.85",
		"longitude":     "2.35",
	}, "proof.jpg", []byte("fake-jpeg"))

	req := httptest.NewRequest(http.MethodPost, "/booking", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created bookingResponse
	decode(t, w, &created)
	require.NotZero(t, created.Booking.ID)

	w = s.do(http.MethodGet, "/booking/"+itoa(created.Booking.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var fetched bookingResponse
	decode(t, w, &fetched)
	assert.Equal(t, "pending", fetched.Booking.Status)
	assert.Equal(t, uint(3), fetched.Booking.UserID)
	assert.Equal(t, uint(7), fetched.Booking.PostID)
	require.NotNil(t, fetched.Booking.Post)
	require.NotNil(t, fetched.Booking.User)
	assert.Equal(t, uint(7), fetched.Booking.Post.ID)
	assert.Equal(t, "Rooftop Party", fetched.Booking.Post.Title)
	assert.Equal(t, uint(3), fetched.Booking.User.ID)

	require.NotNil(t, fetched.Booking.ImageProof)
	assert.True(t, strings.HasPrefix(*fetched.Booking.ImageProof, "/uploads/3-"))

	w = s.do(http.MethodGet, *fetched.Booking.ImageProof, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fake-jpeg", w.Body.String())

	// the owner got a "booking received" notification
	var unread struct {
		Count int64 `json:"count"`
	}
	w = s.do(http.MethodGet, "/notification/user/unread-count", token, nil)
	decode(t, w, &unread)
	assert.Equal(t, int64(1), unread.Count)
}

func TestCreateBookingValidation(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "val", "")
	token := testutil.Token(t, user)

	post := func(fields map[string]string) *httptest.ResponseRecorder {
		body, contentType := bookingForm(t, fields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/booking", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	fields := map[string]string{
		"eventDate":     "2026-12-31",
		"totalPrice":    "10",
		"paymentMethod": "cash",
		"phoneNumber":   "0600000000",
		"address":       "Somewhere",
	}
	assert.Equal(t, http.StatusBadRequest, post(fields).Code, "missing serviceId")

	fields["serviceId"] = "999"
	assert.Equal(t, http.StatusNotFound, post(fields).Code)

	fields["eventDate"] = "next friday"
	assert.Equal(t, http.StatusBadRequest, post(fields).Code)

	var count int64
	s.db.Model(&models.Booking{}).Count(&count)
	assert.Zero(t, count)
}

func TestAdminEndpointsRejectRegularUsers(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "regular", "customer")
	token := testutil.Token(t, user)

	cases := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/booking/stats", nil},
		{http.MethodGet, "/booking/all", nil},
		{http.MethodGet, "/booking/export", nil},
		{http.MethodPut, "/booking/status/1", gin.H{"status": "confirmed"}},
		{http.MethodPost, "/posts", gin.H{"title": "x"}},
		{http.MethodDelete, "/posts/1", nil},
		{http.MethodPost, "/notification/broadcast", gin.H{"title": "t", "content": "c"}},
		{http.MethodGet, "/notification/admin/all", nil},
		{http.MethodPost, "/notification/admin/batch", gin.H{"ids": []uint{1}, "action": "delete"}},
	}
	for _, tc := range cases {
		w := s.do(tc.method, tc.path, token, tc.body)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)

		w = s.do(tc.method, tc.path, "", tc.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s without token", tc.method, tc.path)
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.CreateUser(t, s.db, "admin", "admin")
	customer := testutil.CreateUser(t, s.db, "cust", "")
	post := testutil.CreatePost(t, s.db, "ball")
	booking := testutil.CreateBooking(t, s.db, customer.ID, post.ID, models.BookingStatusPending)
	token := testutil.Token(t, admin)
	path := "/booking/status/" + itoa(booking.ID)

	w := s.do(http.MethodPut, path, token, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, path, token, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp bookingResponse
	decode(t, w, &resp)
	assert.Equal(t, "confirmed", resp.Booking.Status)

	w = s.do(http.MethodPut, path, token, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/booking/status/9999", token, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var stats map[string]int64
	w = s.do(http.MethodGet, "/booking/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats["total"])
	assert.Equal(t, int64(1), stats["confirmed"])

	w = s.do(http.MethodGet, "/booking/export?from=2020-01-01", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = s.do(http.MethodGet, "/booking/export?from=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateUser(t, s.db, "canceller", "")
	post := testutil.CreatePost(t, s.db, "picnic")
	pending := testutil.CreateBooking(t, s.db, customer.ID, post.ID, models.BookingStatusPending)
	completed := testutil.CreateBooking(t, s.db, customer.ID, post.ID, models.BookingStatusCompleted)
	token := testutil.Token(t, customer)

	w := s.do(http.MethodPut, "/booking/cancel/"+itoa(pending.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/booking/cancel/"+itoa(pending.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/booking/cancel/"+itoa(completed.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/booking/cancel/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBroadcastNotifiesEveryUser(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.CreateUser(t, s.db, "admin", "admin")
	users := []models.User{
		testutil.CreateUser(t, s.db, "n1", ""),
		testutil.CreateUser(t, s.db, "n2", ""),
	}

	w := s.do(http.MethodPost, "/notification/broadcast", testutil.Token(t, admin), gin.H{"title": "Hello", "content": "Welcome all"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Count int `json:"count"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.Count)

	for _, u := range users {
		var list struct {
			Notifications []models.Notification `json:"notifications"`
		}
		w = s.do(http.MethodGet, "/notification/user", testutil.Token(t, u), nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &list)
		require.Len(t, list.Notifications, 1)
		assert.Equal(t, "Hello", list.Notifications[0].Title)
		assert.Equal(t, u.ID, list.Notifications[0].UserID)
	}
}

func TestFeedbackEndpoints(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "rater", "")
	post := testutil.CreatePost(t, s.db, "opera")
	token := testutil.Token(t, user)

	w := s.do(http.MethodGet, "/feedback/post/"+itoa(post.ID)+"/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var empty map[string]interface{}
	decode(t, w, &empty)
	assert.Equal(t, float64(0), empty["averageRating"])

	w = s.do(http.MethodPost, "/feedback", token, gin.H{"rating": 4, "postId": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, "/feedback", token, gin.H{"rating": 7, "postId": post.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/feedback", token, gin.H{"postId": post.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	s.db.Model(&models.Feedback{}).Count(&count)
	assert.Zero(t, count)

	for _, r := range []int{5, 5, 4} {
		w = s.do(http.MethodPost, "/feedback", token, gin.H{"rating": r, "comment": "nice", "postId": post.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, "/feedback/post/"+itoa(post.ID)+"/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalCount    int64  `json:"totalCount"`
		AverageRating string `json:"averageRating"`
		StarCounts    map[string]struct {
			Count      int64  `json:"count"`
			Percentage string `json:"percentage"`
		} `json:"starCounts"`
	}
	decode(t, w, &stats)
	assert.Equal(t, int64(3), stats.TotalCount)
	assert.Equal(t, "4.7", stats.AverageRating)
	assert.Equal(t, "66.7", stats.StarCounts["5"].Percentage)

	w = s.do(http.MethodGet, "/feedback/post/"+itoa(post.ID)+"/stars/5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var five struct {
		Feedback []models.Feedback `json:"feedback"`
	}
	decode(t, w, &five)
	assert.Len(t, five.Feedback, 2)

	w = s.do(http.MethodGet, "/feedback/post/"+itoa(post.ID)+"/stars/9", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth", "", gin.H{
		"username": "newbie",
		"email":    "newbie@example.com",
		"password": "secret123",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, s.db.Where("username = ?", "newbie").First(&user).Error)
	assert.Nil(t, user.Role, "admin role cannot be self-assigned")

	w = s.do(http.MethodPost, "/auth", "", gin.H{"username": "newbie", "email": "x@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"username": "newbie", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "newbie@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	w = s.do(http.MethodGet, "/auth/user", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"newbie"`)
	assert.NotContains(t, w.Body.String(), "secret123")

	w = s.do(http.MethodPut, "/auth/profile", login.Token, gin.H{"phone": "0123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phone":"0123"`)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestWebSocketReceivesNotifications(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateUser(t, s.db, "listener", "")
	token := testutil.Token(t, user)

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return s.hub.IsUserConnected(user.ID) }, time.Second, 10*time.Millisecond)

	w := s.do(http.MethodPost, "/notification", token, gin.H{"title": "Ping", "content": "Self reminder"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string              `json:"type"`
		Data models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "notification", msg.Type)
	assert.Equal(t, "Ping", msg.Data.Title)
}
