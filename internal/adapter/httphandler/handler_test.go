package httphandler_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/images"
	"github.com/niksmo/storefront/internal/adapter/session"
	"github.com/niksmo/storefront/internal/adapter/token"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	shop   *fakeShop
	srv    *httptest.Server
	imgDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	shop := newFakeShop(
		domain.Product{ID: 1, Name: "Fox Socks", Price: 4.5, Description: "Warm socks", CarbonFootprint: 1.2, Image: "fox.png"},
		domain.Product{ID: 2, Name: "Bamboo Toothbrush", Price: 2.99, CarbonFootprint: 0.3, Image: "brush.png"},
		domain.Product{ID: 3, Name: "The Reusable Bottle", Price: 12, CarbonFootprint: 2.5, Image: "bottle.png"},
	)

	imgDir := t.TempDir()
	local, err := images.NewLocalStorage(imgDir, "/static/img/products/")
	require.NoError(t, err)

	remember, err := token.NewRemember("secret", time.Hour)
	require.NoError(t, err)

	sessions := httphandler.NewSessions(
		session.NewMemoryStore(),
		httphandler.CookieConfig{Name: "session_id"},
		httphandler.RememberOpt(remember),
	)

	h, err := httphandler.NewRouter(
		httphandler.Services{Catalog: shop, Identity: shop, Basket: shop},
		httphandler.RouterOpts{
			Images:       local,
			Sessions:     sessions,
			StaticPrefix: local.URLPrefix(),
			Static:       local.Handler(),
		},
	)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testEnv{shop: shop, srv: srv, imgDir: imgDir}
}

func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) post(
	t *testing.T, c *http.Client, path string, form url.Values,
) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) signupAndLogin(t *testing.T, c *http.Client, username string) {
	t.Helper()
	resp, _ := e.post(t, c, "/signup", url.Values{
		"username": {username}, "password": {"secret"}, "confirm": {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = e.post(t, c, "/login", url.Values{
		"username": {username}, "password": {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.get(t, e.client(t), "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestProductPages(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	t.Run("List", func(t *testing.T) {
		resp, body := e.get(t, c, "/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Fox Socks")
		assert.Contains(t, body, "Bamboo Toothbrush")
		assert.Contains(t, body, "/static/img/products/fox.png")
		assert.Contains(t, body, "£4.50")
	})

	t.Run("SortPriceDesc", func(t *testing.T) {
		resp, body := e.get(t, c, "/sort_products/price_desc")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Less(t,
			strings.Index(body, "Bamboo Toothbrush"),
			strings.Index(body, "Fox Socks"))
		assert.Less(t,
			strings.Index(body, "Fox Socks"),
			strings.Index(body, "The Reusable Bottle"))
	})

	t.Run("Search", func(t *testing.T) {
		resp, body := e.post(t, c, "/search", url.Values{"search_terms": {"the quick Fox"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Fox Socks")
		assert.NotContains(t, body, "Bamboo Toothbrush")
	})

	t.Run("SearchNoMatch", func(t *testing.T) {
		_, body := e.post(t, c, "/search", url.Values{"search_terms": {"xyz123"}})
		assert.Contains(t, body, "No products found.")
	})

	t.Run("Display", func(t *testing.T) {
		resp, body := e.get(t, c, "/display_product/1")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Warm socks")
	})

	t.Run("DisplayUnknown", func(t *testing.T) {
		resp, _ := e.get(t, c, "/display_product/99")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = e.get(t, c, "/display_product/abc")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		resp, _ := e.get(t, c, "/nowhere")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("RejectsJSON", func(t *testing.T) {
		resp, err := c.Post(e.srv.URL+"/search", "application/json",
			strings.NewReader(`{"search_terms":"fox"}`))
		require.NoError(t, err)
		readBody(t, resp)
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})
}

func TestAnonymousBasket(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	for _, path := range []string{"/add_to_basket/1", "/add_to_basket/1", "/add_to_basket/2"} {
		resp, _ := e.post(t, c, path, nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	}

	resp, body := e.get(t, c, "/basket")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, strings.Count(body, `action="/remove_from_basket/1"`))
	assert.Contains(t, body, "Bamboo Toothbrush")
	assert.Contains(t, body, "Total: £7.49")

	resp, _ = e.post(t, c, "/remove_from_basket/1", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/basket", resp.Header.Get("Location"))

	_, body = e.get(t, c, "/basket")
	assert.NotContains(t, body, "Fox Socks")
	assert.Contains(t, body, "Total: £2.99")

	resp, _ = e.post(t, c, "/add_to_basket/99", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	t.Run("SeparateVisitors", func(t *testing.T) {
		_, body := e.get(t, e.client(t), "/basket")
		assert.Contains(t, body, "Your basket is empty.")
		assert.Contains(t, body, "Total: £0.00")
	})
}

func TestAuth(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	t.Run("LoginRequired", func(t *testing.T) {
		resp, _ := e.get(t, c, "/checkout")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login?next=%2Fcheckout", resp.Header.Get("Location"))
	})

	t.Run("SignupValidation", func(t *testing.T) {
		resp, body := e.post(t, c, "/signup", url.Values{
			"username": {"bo"}, "password": {"secret"}, "confirm": {"secret"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Must be at least 4 characters long.")

		resp, body = e.post(t, c, "/signup", url.Values{
			"username": {"alice"}, "password": {"secret"}, "confirm": {"other"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Passwords must match.")
	})

	t.Run("Signup", func(t *testing.T) {
		form := url.Values{
			"username": {"alice"}, "password": {"secret"}, "confirm": {"secret"},
		}
		resp, _ := e.post(t, c, "/signup", form)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		resp, _ = e.post(t, c, "/signup", form)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("LoginUnknownUser", func(t *testing.T) {
		resp, _ := e.post(t, c, "/login?next=%2Fcheckout", url.Values{
			"username": {"nobody"}, "password": {"secret"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/signup?next=%2Fcheckout", resp.Header.Get("Location"))
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		resp, body := e.post(t, c, "/login", url.Values{
			"username": {"alice"}, "password": {"wrong"},
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, body, domain.ErrInvalidCredentials.Error())
	})

	t.Run("Login", func(t *testing.T) {
		resp, _ := e.post(t, c, "/login?next=%2Fcheckout", url.Values{
			"username": {"alice"}, "password": {"secret"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/checkout", resp.Header.Get("Location"))

		resp, body := e.get(t, c, "/checkout")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "alice")
	})

	t.Run("LoginOpenRedirect", func(t *testing.T) {
		resp, _ := e.post(t, c, "/login?next=%2F%2Fevil.example", url.Values{
			"username": {"alice"}, "password": {"secret"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("Checkout", func(t *testing.T) {
		resp, body := e.post(t, c, "/checkout", url.Values{
			"card_name": {"Alice"}, "card_number": {"1234"}, "cvv": {"12"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Must be exactly 16 characters long.")
		assert.Contains(t, body, "Must be exactly 3 characters long.")

		resp, body = e.post(t, c, "/checkout", url.Values{
			"card_name": {"Alice"}, "card_number": {"1234567812345678"}, "cvv": {"123"},
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Thank you for your order")
	})

	t.Run("UserBasket", func(t *testing.T) {
		resp, _ := e.post(t, c, "/add_to_basket/3", nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		_, body := e.get(t, c, "/basket")
		assert.Contains(t, body, "The Reusable Bottle")
		assert.Contains(t, body, "Total: £12.00")

		resp, _ = e.post(t, c, "/remove_from_basket/3", nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		_, body = e.get(t, c, "/basket")
		assert.Contains(t, body, "Total: £0.00")
	})

	t.Run("Logout", func(t *testing.T) {
		resp, _ := e.get(t, c, "/logout")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))

		resp, _ = e.get(t, c, "/checkout")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})
}

func TestUserBasketRemoveWithoutBasket(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)
	e.signupAndLogin(t, c, "carol")

	resp, _ := e.post(t, c, "/remove_from_basket/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRememberMe(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	resp, _ := e.post(t, c, "/signup", url.Values{
		"username": {"bobby"}, "password": {"secret"}, "confirm": {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = e.post(t, c, "/login", url.Values{
		"username": {"bobby"}, "password": {"secret"}, "remember_me": {"y"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	srvURL, err := url.Parse(e.srv.URL)
	require.NoError(t, err)

	var remember *http.Cookie
	for _, ck := range c.Jar.Cookies(srvURL) {
		if ck.Name == "remember_token" {
			remember = ck
		}
	}
	require.NotNil(t, remember)

	other := e.client(t)
	other.Jar.SetCookies(srvURL, []*http.Cookie{remember})

	resp, body := e.get(t, other, "/checkout")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "bobby")
}

func TestAddProduct(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	resp, _ := e.get(t, c, "/add_product")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	e.signupAndLogin(t, c, "admin")

	resp, body := e.get(t, c, "/add_product")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `enctype="multipart/form-data"`)

	upload := func(t *testing.T, filename, price string) (*http.Response, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("name", "Mug"))
		require.NoError(t, mw.WriteField("price", price))
		require.NoError(t, mw.WriteField("description", "Ceramic mug"))
		require.NoError(t, mw.WriteField("carbon_footprint", "1.5"))
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := c.Post(e.srv.URL+"/add_product", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		return resp, readBody(t, resp)
	}

	t.Run("InvalidForm", func(t *testing.T) {
		resp, body := upload(t, "mug.gif", "cheap")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Must be a number.")
		assert.Contains(t, body, "Upload a jpg, jpeg or png image.")
	})

	t.Run("Created", func(t *testing.T) {
		resp, _ := upload(t, "mug.png", "8.50")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		ps, err := e.shop.ListProducts(t.Context())
		require.NoError(t, err)
		last := ps[len(ps)-1]
		assert.Equal(t, "Mug", last.Name)
		assert.Equal(t, 8.5, last.Price)
		assert.Equal(t, 1.5, last.CarbonFootprint)
		assert.Equal(t, "mug.png", last.Image)

		data, err := os.ReadFile(filepath.Join(e.imgDir, "mug.png"))
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))

		resp, body := e.get(t, c, "/static/img/products/mug.png")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "png-bytes", body)
	})
}

func TestRememberMeRotatesSession(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)
	e.signupAndLogin(t, c, "carol")

	srvURL, err := url.Parse(e.srv.URL)
	require.NoError(t, err)

	resp, _ := e.post(t, c, "/login", url.Values{
		"username": {"carol"}, "password": {"secret"}, "remember_me": {"y"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	remember := cookieNamed(c.Jar.Cookies(srvURL), "remember_token")
	require.NotNil(t, remember)

	other := e.client(t)
	resp, _ = e.post(t, other, "/add_to_basket/2", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	anonymous := cookieNamed(other.Jar.Cookies(srvURL), "session_id")
	require.NotNil(t, anonymous)

	other.Jar.SetCookies(srvURL, []*http.Cookie{remember})
	resp, body := e.get(t, other, "/checkout")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "carol")

	restored := cookieNamed(resp.Cookies(), "session_id")
	require.NotNil(t, restored)
	assert.NotEqual(t, anonymous.Value, restored.Value)

	stale := e.client(t)
	stale.Jar.SetCookies(srvURL, []*http.Cookie{anonymous})
	resp, body = e.get(t, stale, "/basket")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your basket is empty.")
}

func cookieNamed(cs []*http.Cookie, name string) *http.Cookie {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}
