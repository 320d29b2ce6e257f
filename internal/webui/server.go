// Package webui serves the slice viewer web interface over HTTP.
package webui

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"mrivis/internal/catalog"
	"mrivis/internal/httputil"
	"mrivis/internal/models"
	"mrivis/pkg/dicomseries"
	"mrivis/pkg/visualization"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server handles the HTTP interface for browsing a loaded volume.
// It serves the viewer page, slice images rendered on demand, and the
// series catalog.
type Server struct {
	addr    string
	viewer  *visualization.Viewer
	volume  *models.Volume
	series  models.SeriesInfo
	catalog *catalog.DB

	// scanRoot is rescanned on demand to refresh the catalog
	scanRoot string

	server *http.Server
}

// Config contains configuration options for the web server
type Config struct {
	Addr     string
	Viewer   *visualization.Viewer
	Volume   *models.Volume
	Series   models.SeriesInfo
	Catalog  *catalog.DB
	ScanRoot string
}

// NewServer creates a new web server with the provided configuration
func NewServer(cfg Config) *Server {
	s := &Server{
		addr:     cfg.Addr,
		viewer:   cfg.Viewer,
		volume:   cfg.Volume,
		series:   cfg.Series,
		catalog:  cfg.Catalog,
		scanRoot: cfg.ScanRoot,
	}

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.ServeMux(),
	}

	return s
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/view", s.handleView)
	mux.HandleFunc("/api/slice", s.handleSlice)
	mux.HandleFunc("/api/volume", s.handleVolumeInfo)
	mux.HandleFunc("/api/series", s.handleSeries)
	mux.HandleFunc("/api/rescan", s.handleRescan)
	mux.HandleFunc("/debug/histogram", s.handleHistogram)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (s *Server) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if r.URL.Path != "/" {
		httputil.NotFound(w, "page not found")
		return
	}

	if err := pages.ExecuteTemplate(w, "home.html", s.series); err != nil {
		log.Printf("failed to render home page: %v", err)
	}
}

// viewData feeds the viewer template: axis lengths bound the slice slider
// client-side when the axis selection changes. ZMax is the highest valid
// index on the default z axis, rendered as the slider's initial max.
type viewData struct {
	Series  models.SeriesInfo
	X, Y, Z int
	ZMax    int
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	data := viewData{
		Series: s.series,
		X:      s.volume.Width,
		Y:      s.volume.Height,
		Z:      s.volume.Depth,
		ZMax:   s.volume.Depth - 1,
	}
	if err := pages.ExecuteTemplate(w, "view.html", data); err != nil {
		log.Printf("failed to render view page: %v", err)
	}
}

func (s *Server) handleSlice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	axis := r.URL.Query().Get("axis")
	if axis == "" {
		axis = "z"
	}

	index := 0
	if v := r.URL.Query().Get("index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.BadRequest(w, "index must be an integer")
			return
		}
		index = n
	}

	img, err := s.viewer.ExtractSlice(axis, index)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.WritePNG(w, img)
}

// volumeInfo is the JSON shape returned by /api/volume
type volumeInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Depth  int `json:"depth"`

	VoxelSize struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"voxel_size_mm"`

	AxisLengths map[string]int      `json:"axis_lengths"`
	Stats       visualization.Stats `json:"stats"`
	Series      models.SeriesInfo   `json:"series"`
}

func (s *Server) handleVolumeInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	info := volumeInfo{
		Width:  s.volume.Width,
		Height: s.volume.Height,
		Depth:  s.volume.Depth,
		AxisLengths: map[string]int{
			"x": s.volume.Width,
			"y": s.volume.Height,
			"z": s.volume.Depth,
		},
		Stats:  s.viewer.VolumeStats(),
		Series: s.series,
	}
	info.VoxelSize.X = s.volume.VoxelSize.X
	info.VoxelSize.Y = s.volume.VoxelSize.Y
	info.VoxelSize.Z = s.volume.VoxelSize.Z

	httputil.WriteJSONOK(w, info)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	series, err := s.catalog.ListSeries()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if series == nil {
		series = []models.SeriesInfo{}
	}

	httputil.WriteJSONOK(w, series)
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	series, err := dicomseries.ListSeries(s.scanRoot)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	if err := s.catalog.ReplaceAll(series); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, map[string]int{"series": len(series)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}
