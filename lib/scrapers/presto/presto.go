package presto

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"prestoassist-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/presto")

const DefaultBaseUrl = "https://www.prestocard.ca"

const (
	homepagePath       = "/home"
	signInPath         = "/api/sitecore/AFMSAuthentication/SignInWithAccount"
	dashboardPath      = "/en/dashboard"
	cardActivityPath   = "/en/dashboard/card-activity"
	activityFilterPath = "/api/sitecore/Paginator/CardActivityFilteredIndex"
)

const userAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:64.0) Gecko/20100101 Firefox/64.0"

// Client owns one logged-in (or anonymous) portal session: a cookie jar
// plus an http client presenting a consistent browser identity. one
// Client per user, never shared, requests under one session must not
// interleave since every response may rewrite session cookies.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	jar     http.CookieJar
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// a previously exported cookie set to resume a session with
	Cookies []*http.Cookie
}

func NewClient(opts ClientOptions) (*Client, error) {
	rawUrl := opts.BaseUrl
	if rawUrl == "" {
		rawUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(rawUrl)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if len(opts.Cookies) > 0 {
		jar.SetCookies(baseUrl, opts.Cookies)
	}

	client := resty.New()
	client.SetBaseURL(rawUrl)
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.5")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/presto/http")

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		jar:     jar,
	}
	return c, nil
}

// the session's current cookies, suitable for persisting and feeding
// back through ClientOptions.Cookies later
func (c *Client) ExportCookies() []*http.Cookie {
	return c.jar.Cookies(c.BaseUrl)
}
