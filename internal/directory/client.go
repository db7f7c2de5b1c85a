// Package directory answers existence questions against the residents and users services.
package directory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client looks up a single resource kind by id over HTTP.
// A 2xx response means the resource exists; anything else, transport failures included,
// is reported as absent.
type Client struct {
	baseURL string
	path    string
	kind    string
	hc      *http.Client
	log     *slog.Logger
}

func newClient(baseURL, path, kind string, hc *http.Client, log *slog.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		path:    path,
		kind:    kind,
		hc:      hc,
		log:     log.With(slog.String("component", "directory."+kind)),
	}
}

func (c *Client) exists(ctx context.Context, id int64) bool {
	url := fmt.Sprintf("%s%s/%d", c.baseURL, c.path, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Warn("build lookup request", slog.Any("err", err), slog.Int64("id", id))
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn("lookup failed", slog.Any("err", err), slog.Int64("id", id))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true
	}
	if resp.StatusCode != http.StatusNotFound {
		c.log.Warn("lookup returned unexpected status", slog.Int("status", resp.StatusCode), slog.Int64("id", id))
	}
	return false
}

// Residents queries the residents service.
type Residents struct {
	c *Client
}

func NewResidents(baseURL string, hc *http.Client, log *slog.Logger) *Residents {
	return &Residents{c: newClient(baseURL, "/api/v1/residents", "residents", hc, log)}
}

func (r *Residents) ResidentExists(ctx context.Context, residentID int64) bool {
	return r.c.exists(ctx, residentID)
}

// Doctors queries the users service, which owns doctor accounts.
type Doctors struct {
	c *Client
}

func NewDoctors(baseURL string, hc *http.Client, log *slog.Logger) *Doctors {
	return &Doctors{c: newClient(baseURL, "/api/v1/doctors", "doctors", hc, log)}
}

func (d *Doctors) DoctorExists(ctx context.Context, doctorID int64) bool {
	return d.c.exists(ctx, doctorID)
}
