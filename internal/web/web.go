package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"staycal/internal/axis"
	"staycal/internal/config"
	"staycal/internal/datemath"
	"staycal/internal/feed"
	appLog "staycal/internal/log"
	"staycal/internal/placement"
	"staycal/internal/render"
)

// maxDays bounds the window a single /calendar or /api/timeline request may
// materialize.
const maxDays = 3660

// Server serves the calendar page, listing pages and the JSON API from the
// latest feed snapshot.
type Server struct {
	cfg       *config.Config
	store     *feed.Store
	refresher *feed.Refresher
	loc       *time.Location
	now       func() time.Time
	mux       *http.ServeMux
}

// NewServer constructs a new Server. refresher may be nil, which disables
// POST /api/refresh.
func NewServer(cfg *config.Config, store *feed.Store, refresher *feed.Refresher) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		refresher: refresher,
		loc:       ResolveLocation(cfg.Timezone),
		now:       time.Now,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than lock everyone out.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="staycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs the server on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe binds cfg.Listen and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
	return s.Serve(ctx, ln)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /properties/{id}", s.handleProperty)
	s.mux.HandleFunc("GET /api/listings", s.handleListings)
	s.mux.HandleFunc("GET /api/bookings", s.handleBookings)
	s.mux.HandleFunc("GET /api/timeline", s.handleTimeline)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// timeline builds the axis for a request. origin=YYYY-MM-DD and days=N
// restore a window the browser already had; without them the initial
// window around today is used.
func (s *Server) timeline(r *http.Request, snap *feed.Snapshot) render.Timeline {
	today := s.now().In(s.loc)
	opts := s.cfg.Timeline.AxisOptions()

	a := axis.New(today, opts)
	q := r.URL.Query()
	if v := q.Get("origin"); v != "" {
		origin, err := time.ParseInLocation(time.DateOnly, v, s.loc)
		if err == nil {
			days := min(maxDays, parseIntDefault(q.Get("days"), 0))
			a = axis.Restore(today, origin, days, opts)
		}
	}
	return render.Timeline{Axis: a, Listings: snap.Listings, Index: snap.Index}
}

// handleCalendar renders the whole materialized window server side. The
// root element carries data-ready="true" so headless captures know the
// grid is complete.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	page := render.NewPage(s.timeline(r, snap))
	page.MaxDays = maxDays
	if !snap.UpdatedAt.IsZero() {
		page.Updated = snap.UpdatedAt.In(s.loc).Format("Jan 2 15:04")
	}
	page.Problems = snap.Errors

	var buf bytes.Buffer
	if err := render.WriteCalendar(&buf, page); err != nil {
		appLog.Error("calendar render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleProperty(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	l, ok := snap.Listing(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	page := render.NewPropertyPage(l, snap.Index, s.now().In(s.loc))
	if err := render.WriteProperty(&buf, page); err != nil {
		appLog.Error("property render failed", err, "listing", l.ID)
		writeError(w, http.StatusInternalServerError, "failed to render property")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// listingDTO is the JSON shape of /api/listings entries.
type listingDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Link        string `json:"link"`
	Bookings    int    `json:"bookings"`
	NextCheckIn string `json:"next_check_in,omitempty"`
}

// bookingDTO is the JSON shape of /api/bookings entries. Days are
// YYYY-MM-DD in the display zone.
type bookingDTO struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	Summary   string `json:"summary"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Nights    int    `json:"nights"`
}

type timelineResponse struct {
	Axis      axis.State    `json:"axis"`
	Threshold int           `json:"threshold"`
	Rows      []timelineRow `json:"rows"`
}

type timelineRow struct {
	ListingID   string        `json:"listing_id"`
	NextCheckIn *int          `json:"next_check_in_column,omitempty"`
	Runs        []timelineRun `json:"runs"`
}

type timelineRun struct {
	BookingID       string `json:"booking_id"`
	StartColumn     int    `json:"start_column"`
	EndColumn       int    `json:"end_column"`
	TurnoverOnEntry bool   `json:"turnover_on_entry,omitempty"`
	TurnoverOnExit  bool   `json:"turnover_on_exit,omitempty"`
}

func (s *Server) handleListings(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Current()
	today := s.now().In(s.loc)

	out := make([]listingDTO, 0, len(snap.Listings))
	for _, l := range snap.Listings {
		dto := listingDTO{
			ID:       l.ID,
			Name:     l.Name,
			Link:     l.Link(),
			Bookings: len(snap.Index.For(l.ID)),
		}
		if next, ok := snap.Index.NextCheckIn(l.ID, today); ok {
			dto.NextCheckIn = next.Start.Format(time.DateOnly)
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBookings lists bookings sorted by check-in, optionally for one
// listing (?listing=id).
//
// GET /api/bookings?listing=beach
func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()

	ids := make([]string, 0, len(snap.Listings))
	if id := r.URL.Query().Get("listing"); id != "" {
		if _, ok := snap.Listing(id); !ok {
			writeError(w, http.StatusNotFound, "unknown listing "+strconv.Quote(id))
			return
		}
		ids = append(ids, id)
	} else {
		for _, l := range snap.Listings {
			ids = append(ids, l.ID)
		}
	}

	out := make([]bookingDTO, 0)
	for _, id := range ids {
		for _, b := range snap.Index.For(id) {
			out = append(out, bookingDTO{
				ID:        b.ID,
				ListingID: b.ListingID,
				Summary:   b.Summary,
				CheckIn:   b.Start.In(s.loc).Format(time.DateOnly),
				CheckOut:  b.End.In(s.loc).Format(time.DateOnly),
				Nights:    datemath.DaysBetween(b.Start, b.End),
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTimeline exposes the axis and the clipped column runs of every row
// for the requested window, in the same terms the page is drawn in.
//
// GET /api/timeline?origin=2024-05-25&days=150
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	tl := s.timeline(r, snap)
	win := tl.Window()

	resp := timelineResponse{
		Axis:      tl.Axis.State(),
		Threshold: tl.Axis.Threshold(),
		Rows:      make([]timelineRow, 0, len(tl.Listings)),
	}
	for _, l := range tl.Listings {
		row := timelineRow{ListingID: l.ID, Runs: make([]timelineRun, 0)}
		if next, ok := tl.Index.NextCheckIn(l.ID, tl.Axis.Today()); ok {
			col := max(0, tl.Axis.Column(next.Start))
			row.NextCheckIn = &col
		}
		for run := range placement.Row(win, tl.Index.For(l.ID)) {
			row.Runs = append(row.Runs, timelineRun{
				BookingID:       run.Booking.ID,
				StartColumn:     run.Start,
				EndColumn:       run.End,
				TurnoverOnEntry: run.TurnoverOnEntry,
				TurnoverOnExit:  run.TurnoverOnExit,
			})
		}
		resp.Rows = append(resp.Rows, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh runs one feed refresh synchronously.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh is not available")
		return
	}
	snap, err := s.refresher.Refresh(r.Context())
	if err != nil {
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings":   len(snap.Bookings),
		"errors":     snap.Errors,
		"updated_at": snap.UpdatedAt,
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ResolveLocation loads an IANA zone, falling back to time.Local when the
// name is empty or unknown.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
