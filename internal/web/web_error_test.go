package web_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bouncetimer/internal/factory"
	"github.com/mcoot/bouncetimer/internal/testutil"
	"github.com/mcoot/bouncetimer/internal/web"
)

func TestFlashMessageShownOnce(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginAdmin()

	rr := ts.post("/players", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsElement(t, doc, ".flash-error")

	doc = parseHTML(ts.get("/").Body)
	assertNotContainsElement(t, doc, ".flash")
}

func TestFlashMessageEscaped(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginAdmin()

	rr := ts.post("/players", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	ts.cookies.cookies["flash"].Value = "error%3A%3Cscript%3Ealert(1)%3C%2Fscript%3E"

	rr = ts.get("/")
	assert.NotContains(t, rr.Body.String(), "<script>alert(1)</script>")
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-error", "<script>alert(1)</script>")
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginAdmin()

	rr := ts.get("/players/clear-expired")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStaticFileServing(t *testing.T) {
	app := factory.NewTestApp()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o600))

	router := web.NewRouter(web.RouterConfig{
		Logger:      testutil.NopLogger(),
		AuthService: app.AuthService,
		Store:       app.Store,
		Clock:       app.Clock,
		Hub:         app.Hub,
		StaticDir:   dir,
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "body{}", rr.Body.String())
}
