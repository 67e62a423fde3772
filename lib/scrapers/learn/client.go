// Package learn scrapes the online-learning site: course and book tables
// of contents, per-video transcripts, e-book chapter content and live-event
// caption tracks. It contains no knowledge of batching or output formats.
package learn

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"lectern/lib/htmlutil"
	"lectern/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("lectern.scrapers.learn")

var ErrLoginFailed = fmt.Errorf("failed to login to your account")

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	waitOpts htmlutil.WaitOptions
}

type ClientOptions struct {
	BaseUrl string
	// Wait controls the poll interval/timeout used while waiting for
	// slow-rendering content. Zero values pick sensible defaults.
	Wait htmlutil.WaitOptions
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	// 2 requests max per second, politeness towards the host site
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "lectern.scrapers.learn.http")

	waitOpts := opts.Wait
	if waitOpts.Timeout <= 0 {
		waitOpts.Timeout = time.Second * 10
	}

	c := &Client{
		BaseUrl:  baseUrl,
		Http:     client,
		waitOpts: waitOpts,
	}
	return c, nil
}

// getDocument fetches a page and parses it. Most extraction methods start
// here, and the wait helpers use it as their polling fetcher.
func (c *Client) getDocument(ctx context.Context, endpoint string) (*goquery.Document, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", endpoint, err)
	}
	return doc, nil
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	doc, err := c.getDocument(ctx, "/login")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	csrfToken := doc.Find("input[name=csrf_token]").AttrOr("value", "")
	if csrfToken == "" {
		span.SetStatus(codes.Error, "failed to find csrf token")
		return fmt.Errorf("could not find csrf token")
	}

	_, err = c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"csrf_token": csrfToken,
			"username":   username,
			"password":   password,
		}).
		Post("/login")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}

	doc, err = c.getDocument(ctx, "/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request home page after login")
		return err
	}

	if len(doc.Find("nav a.account-menu").Nodes) == 0 {
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return ErrLoginFailed
	}

	return nil
}
