package infinitude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultPort is the port Infinitude listens on out of the box.
const DefaultPort = 3000

const (
	connectTimeout = 30 * time.Second
	updateTimeout  = 30 * time.Second
)

var (
	// ErrConnectionFailed means the gateway could not be reached during
	// Connect. Setup should fail visibly rather than degrade.
	ErrConnectionFailed = errors.New("connection to Infinitude failed")

	// ErrUpdateTimeout means a refresh cycle ran out of time. Callers may
	// tolerate it by skipping the cycle.
	ErrUpdateTimeout = errors.New("update from Infinitude timed out")
)

// Config configures a Client.
type Config struct {
	Host string
	Port int
	SSL  bool

	// HTTPClient lets callers share a connection pool across clients.
	// Nil means the client owns its own.
	HTTPClient *http.Client
}

// Client polls an Infinitude gateway and holds the latest normalized
// snapshot of each endpoint. One Client is constructed per gateway;
// Connect establishes the views, then Update is driven periodically by a
// single logical caller. Snapshots are replaced wholesale on refresh, so
// readers never observe a partially updated tree.
type Client struct {
	host      string
	port      int
	transport *transport

	status  Document
	config  Document
	energy  Document
	profile Document

	// System and Zones are created by Connect and live for the client's
	// lifetime.
	System *System
	Zones  map[string]*Zone
}

// NewClient constructs a client for the gateway at cfg.Host. No network
// traffic happens until Connect.
func NewClient(cfg Config) *Client {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	return &Client{
		host:      cfg.Host,
		port:      port,
		transport: newTransport(cfg.Host, port, cfg.SSL, cfg.HTTPClient),
		status:    Document{},
		config:    Document{},
		energy:    Document{},
		profile:   Document{},
	}
}

// Connect performs the initial fetch of all four endpoints concurrently
// under a single timeout, then builds the System view and one Zone view
// per zone found in config. Any failure surfaces as ErrConnectionFailed.
func (c *Client) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var status, config, energy, profile Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { var err error; status, err = c.fetchStatus(gctx); return err })
	g.Go(func() error { var err error; config, err = c.fetchConfig(gctx); return err })
	g.Go(func() error { var err error; energy, err = c.fetchEnergy(gctx); return err })
	g.Go(func() error { var err error; profile, err = c.fetchProfile(gctx); return err })
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("host", c.host).Int("port", c.port).Msg("Failed to connect to Infinitude")
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	c.status = status
	c.config = config
	c.energy = energy
	c.profile = profile

	c.System = &System{client: c}
	c.Zones = make(map[string]*Zone)
	zones, _ := c.config.getList("zones", "zone")
	for _, zc := range zones {
		id, ok := zc.getString("id")
		if !ok {
			continue
		}
		zone := &Zone{client: c, ID: id}
		zone.updateActivities()
		c.Zones[id] = zone
	}

	log.Info().
		Str("host", c.host).
		Int("port", c.port).
		Int("zones", len(c.Zones)).
		Msg("Connected to Infinitude")
	return nil
}

// Update re-fetches status, config and energy concurrently under one
// timeout (profile is static after Connect). A transport failure on one
// endpoint degrades that endpoint to an empty snapshot for the cycle; a
// timeout abandons the whole refresh without replacing anything and
// surfaces ErrUpdateTimeout. On success each snapshot is diffed for
// logging, swapped, and the schedule projection re-run for every zone.
func (c *Client) Update(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	fetch := func(gctx context.Context, name string, f func(context.Context) (Document, error), out *Document) error {
		doc, err := f(gctx)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			log.Error().Err(err).Str("endpoint", name).Msg("Fetch failed, treating endpoint as unavailable this cycle")
			doc = Document{}
		}
		*out = doc
		return nil
	}

	var status, config, energy Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fetch(gctx, "status", c.fetchStatus, &status) })
	g.Go(func() error { return fetch(gctx, "config", c.fetchConfig, &config) })
	g.Go(func() error { return fetch(gctx, "energy", c.fetchEnergy, &energy) })
	if err := g.Wait(); err != nil {
		// Cancellation by the caller is not a gateway timeout.
		if errors.Is(err, context.Canceled) {
			return err
		}
		log.Error().Dur("timeout", updateTimeout).Msg("Update timed out")
		return fmt.Errorf("%w after %s", ErrUpdateTimeout, updateTimeout)
	}

	c.replaceSnapshot("status", &c.status, status)
	c.replaceSnapshot("config", &c.config, config)
	c.replaceSnapshot("energy", &c.energy, energy)

	for _, zone := range c.Zones {
		zone.updateActivities()
	}
	return nil
}

// replaceSnapshot logs what changed and swaps in the new tree. The diff is
// diagnostic only and must never break the refresh.
func (c *Client) replaceSnapshot(name string, dst *Document, next Document) {
	if changes := diffData(*dst, next, ""); changes != nil {
		log.Debug().Str("endpoint", name).Interface("changes", changes).Msg("Snapshot changed")
	}
	*dst = next
}

// Energy returns the energy usage block, or an empty document when the
// endpoint has not produced one.
func (c *Client) Energy() Document {
	if m, ok := c.energy.getMap("energy"); ok {
		return m
	}
	return Document{}
}

// ZoneIDs returns the known zone ids in stable order.
func (c *Client) ZoneIDs() []string {
	ids := make([]string, 0, len(c.Zones))
	for id := range c.Zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases the transport. The client must not be used afterwards.
func (c *Client) Close() {
	c.transport.close()
}

func (c *Client) fetchStatus(ctx context.Context) (Document, error) {
	data, err := c.transport.get(ctx, "/api/status/")
	if err != nil {
		return nil, err
	}
	return asDocument(simplify(data)), nil
}

func (c *Client) fetchConfig(ctx context.Context) (Document, error) {
	data, err := c.transport.get(ctx, "/api/config/")
	if err != nil {
		return nil, err
	}
	return asDocument(simplify(data["data"])), nil
}

func (c *Client) fetchEnergy(ctx context.Context) (Document, error) {
	data, err := c.transport.get(ctx, "/energy.json")
	if err != nil {
		return nil, err
	}
	return asDocument(simplify(data)), nil
}

func (c *Client) fetchProfile(ctx context.Context) (Document, error) {
	data, err := c.transport.get(ctx, "/profile.json")
	if err != nil {
		return nil, err
	}
	return asDocument(simplify(data["system_profile"])), nil
}

func asDocument(v any) Document {
	if m, ok := asMap(v); ok {
		return Document(m)
	}
	return Document{}
}
