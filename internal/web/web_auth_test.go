package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginPage(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/login")
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "form#login-form")
	assertContainsElement(t, doc, "input[name='username']")
	assertContainsElement(t, doc, "input[name='password'][type='password']")
	assertNotContainsElement(t, doc, "nav .operator")
}

func TestLogin(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"username": {"admin"}, "password": {"123"}}
	rr := ts.post("/login", form)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	require.True(t, ts.cookies.hasSession())

	session := ts.cookies.cookies["session"]
	assert.True(t, session.HttpOnly)
	assert.Equal(t, ts.app.MockClock.Now().Add(ts.sessionDuration()).Unix(), session.Expires.Unix())

	// Follow redirect: welcome flash and operator in the nav
	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-success", "Welcome, admin!")
	assertContainsText(t, doc, "nav .operator[data-role='admin']", "admin")
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	rr := ts.post("/login", form)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, ts.cookies.hasSession())

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "Invalid username or password")
	// Username is kept for another attempt
	val, _ := doc.Find("input[name='username']").Attr("value")
	assert.Equal(t, "admin", val)
}

func TestLoginUsernameIsCaseSensitive(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/login", url.Values{"username": {"usuario"}, "password": {"123"}})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, ts.cookies.hasSession())
}

func TestLoginMissingFields(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/login", url.Values{"username": {"admin"}})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "required")
}

func TestLoginPageRedirectsWhenLoggedIn(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginEmployee()

	rr := ts.get("/login")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginAdmin()
	token := ts.cookies.cookies["session"].Value

	rr := ts.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	assert.False(t, ts.cookies.hasSession(), "Session cookie should be cleared")

	_, err := ts.app.AuthService.ValidateSession(token)
	assert.Error(t, err, "Session should be invalidated server side")

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-info", "logged out")
}

func TestProtectedRouteRedirect(t *testing.T) {
	ts := newWebTestServer(t)

	for _, path := range []string{"/", "/fragments/players", "/events"} {
		rr := ts.get(path)
		assert.Equal(t, http.StatusSeeOther, rr.Code, path)
		assert.Equal(t, "/login", rr.Header().Get("Location"), path)
	}
}

func TestExpiredSessionRedirects(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginAdmin()

	ts.app.MockClock.Advance(ts.sessionDuration() + 1)

	rr := ts.get("/")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestSessionPersistence(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginEmployee()

	for range 3 {
		rr := ts.get("/")
		assert.Equal(t, http.StatusOK, rr.Code)
		doc := parseHTML(rr.Body)
		assertContainsText(t, doc, "nav .operator[data-role='employee']", "Usuario")
	}
}
