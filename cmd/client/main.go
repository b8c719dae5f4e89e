// Command client is a terminal latency-test participant: it fetches the
// endpoint catalog, attaches to the coordinator, creates or joins a room,
// probes every candidate when the room says go, and prints the group-wide
// ranking.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/avdeyev/pingroom/internal/catalog"
	"github.com/avdeyev/pingroom/internal/core"
	"github.com/avdeyev/pingroom/internal/domain"
	"github.com/avdeyev/pingroom/internal/probe"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	prober  *probe.Prober

	servers []catalog.Server
	selfID  string
	roomID  string
	start   bool
	wait    time.Duration
}

func main() {
	server := pflag.String("server", "http://localhost:8080", "coordinator base URL")
	join := pflag.String("join", "", "room id to join; empty creates a new room")
	start := pflag.Bool("start", false, "kick off the group probe and request the best ping")
	wait := pflag.Duration("wait", 5*time.Second, "how long to wait for other reports before requesting the best ping")
	timeout := pflag.Duration("probe-timeout", 10*time.Second, "per-candidate probe timeout")
	pflag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("cookie jar")
	}
	httpc := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	servers, err := fetchCatalog(httpc, *server)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch catalog")
	}
	log.Info().Int("servers", len(servers)).Msg("catalog loaded")

	ws, err := dial(jar, *server)
	if err != nil {
		log.Fatal().Err(err).Msg("dial coordinator")
	}
	defer ws.Close()

	c := &client{
		ws:      ws,
		prober:  probe.New(*timeout),
		servers: servers,
		selfID:  clientToken(jar, *server),
		start:   *start,
		wait:    *wait,
	}

	if *join == "" {
		c.send("create-room", nil)
	} else {
		c.send("join-room", map[string]string{"roomId": *join})
	}

	c.run()
}

func fetchCatalog(httpc *http.Client, base string) ([]catalog.Server, error) {
	resp, err := httpc.Get(base + "/api/servers")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}
	var servers []catalog.Server
	if err := json.NewDecoder(resp.Body).Decode(&servers); err != nil {
		return nil, err
	}
	return servers, nil
}

func dial(jar http.CookieJar, base string) (*websocket.Conn, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/ws"

	dialer := websocket.Dialer{Jar: jar, HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.Dial(u.String(), nil)
	return ws, err
}

func (c *client) run() {
	for {
		var env envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			log.Fatal().Err(err).Msg("connection lost")
		}
		c.handle(env)
	}
}

func (c *client) handle(env envelope) {
	switch env.Type {
	case "room-created":
		var room struct {
			RoomID  string   `json:"roomId"`
			Members []string `json:"members"`
		}
		if err := json.Unmarshal(env.Data, &room); err != nil {
			log.Error().Err(err).Msg("bad room-created payload")
			return
		}
		c.roomID = room.RoomID
		fmt.Printf("room created: %s\nshare this id with the others\n", room.RoomID)
		if c.start {
			c.kickOff()
		}

	case "user-joined":
		var room struct {
			RoomID      string   `json:"roomId"`
			Members     []string `json:"members"`
			MemberCount int      `json:"memberCount"`
		}
		if err := json.Unmarshal(env.Data, &room); err != nil {
			log.Error().Err(err).Msg("bad user-joined payload")
			return
		}
		c.roomID = room.RoomID
		fmt.Printf("room %s now has %d member(s)\n", room.RoomID, room.MemberCount)
		if c.start {
			c.kickOff()
		}

	case "room-not-found":
		var roomID string
		_ = json.Unmarshal(env.Data, &roomID)
		log.Fatal().Str("room", roomID).Msg("room not found")

	case "ping-started":
		fmt.Println("probing candidates...")
		go c.probeAndReport()

	case "ping-updated":
		var userID string
		_ = json.Unmarshal(env.Data, &userID)
		fmt.Printf("member %s finished probing\n", userID)

	case "user-left":
		var sid string
		_ = json.Unmarshal(env.Data, &sid)
		fmt.Printf("member %s left\n", sid)

	case "best-ping":
		var means []core.ServerMean
		if err := json.Unmarshal(env.Data, &means); err != nil {
			log.Error().Err(err).Msg("bad best-ping payload")
			return
		}
		printRanking(means)
		os.Exit(0)

	case "error":
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(env.Data, &e)
		log.Warn().Str("error", e.Error).Msg("coordinator rejected request")

	default:
		log.Debug().Str("type", env.Type).Msg("unhandled event")
	}
}

// kickOff starts the room-wide probe and schedules the best-ping request
// once the others have had time to report.
func (c *client) kickOff() {
	c.start = false
	c.send("notify-ping", map[string]string{"roomId": c.roomID})
	go func() {
		time.Sleep(c.wait)
		c.send("get-best-ping", nil)
	}()
}

func (c *client) probeAndReport() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	samples := c.prober.ProbeAll(ctx, c.servers)
	c.send("ping", map[string][]domain.LatencySample{"samples": samples})
	c.send("update-ping", map[string]string{"roomId": c.roomID, "userId": c.selfID})
	fmt.Printf("reported %d sample(s)\n", len(samples))
}

// clientToken digs the session cookie the coordinator keyed us by out of
// the jar. The catalog fetch before dialing is what sets it.
func clientToken(jar http.CookieJar, base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	for _, ck := range jar.Cookies(u) {
		if ck.Name == "ct" {
			return ck.Value
		}
	}
	return ""
}

// send serializes writes; the probe report and the best-ping timer run on
// their own goroutines.
func (c *client) send(event string, data any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(outEnvelope{Type: event, Data: data}); err != nil {
		log.Fatal().Err(err).Str("event", event).Msg("send failed")
	}
}

func printRanking(means []core.ServerMean) {
	if len(means) == 0 {
		fmt.Println("no samples reported yet")
		return
	}
	best, _ := core.BestServer(means)
	fmt.Println("group results:")
	for _, m := range means {
		marker := " "
		if m.ServerName == best {
			marker = "*"
		}
		fmt.Printf(" %s %-20s %5d ms\n", marker, m.ServerName, m.AveragePing)
	}
	fmt.Printf("best server for the group: %s\n", best)
}
