package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/trajectory"
)

var (
	// trajectoriesTotal counts finished trajectories by terminal status
	trajectoriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wpsim_trajectories_total",
		Help: "Finished trajectories by terminal status",
	}, []string{"status"})

	// trajectorySteps tracks accepted steps per trajectory
	trajectorySteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wpsim_trajectory_steps",
		Help:    "Accepted integration steps per trajectory",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// trajectoryDuration tracks wall-clock integration time
	trajectoryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wpsim_trajectory_duration_seconds",
		Help:    "Wall-clock time spent integrating one trajectory",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	})

	// fieldCells counts sampled grid cells by mask state
	fieldCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wpsim_field_cells_total",
		Help: "Sampled field cells by mask state",
	}, []string{"mask"})

	// fieldDuration tracks wall-clock sampling time
	fieldDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wpsim_field_duration_seconds",
		Help:    "Wall-clock time spent sampling one field grid",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

// RecordTrajectory updates the trajectory collectors.
func RecordTrajectory(tr *trajectory.Trajectory, elapsed time.Duration) {
	trajectoriesTotal.WithLabelValues(tr.Status().String()).Inc()
	trajectorySteps.Observe(float64(tr.Len() - 1))
	trajectoryDuration.Observe(elapsed.Seconds())
}

// RecordField updates the field collectors.
func RecordField(g *field.Grid, elapsed time.Duration) {
	valid := g.ValidCount()
	fieldCells.WithLabelValues("valid").Add(float64(valid))
	fieldCells.WithLabelValues("masked").Add(float64(g.Nx*g.Ny - valid))
	fieldDuration.Observe(elapsed.Seconds())
}

// Server exposes the default registry on /metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Serve starts listening on addr in the background. Use Addr to find the
// bound address when addr has port 0.
func Serve(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	return s, nil
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
