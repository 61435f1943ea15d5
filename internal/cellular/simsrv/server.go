// Package simsrv exposes a StaticNetwork over REST. It is the Dev
// counterpart the rainman2 client dials: a separate process started
// before any experiment against --env_type Dev.
package simsrv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/att-innovate/rainman2/internal/cellular"
)

// API paths. The client mirrors these exactly.
const (
	PathIndex          = "/index"
	PathNumUEs         = "/num_ues"
	PathNumAPs         = "/num_aps"
	PathAPList         = "/ap_list"
	PathAPInfo         = "/ap_info"
	PathUEList         = "/ue_list"
	PathUEInfo         = "/ue_info"
	PathResetNetwork   = "/reset_network"
	PathNeighboringAPs = "/neighboring_aps"
	PathUEThroughput   = "/ue_throughput"
	PathUESLA          = "/ue_sla"
	PathUESignalPower  = "/ue_signal_power"
	PathAPSLAs         = "/ap_slas"
	PathHandoff        = "/handoff"
)

// Server wires the simulated network into an HTTP handler.
type Server struct {
	network *cellular.StaticNetwork
	logger  *zap.Logger
	router  *httprouter.Router
}

// New builds the REST surface over the given network.
func New(network *cellular.StaticNetwork, logger *zap.Logger) *Server {
	s := &Server{
		network: network,
		logger:  logger.Named("simsrv"),
		router:  httprouter.New(),
	}

	s.router.GET(PathIndex, s.index)
	s.router.GET(PathNumUEs, s.numUEs)
	s.router.GET(PathNumAPs, s.numAPs)
	s.router.GET(PathAPList, s.apList)
	s.router.GET(PathAPInfo+"/:ap_id", s.apInfo)
	s.router.GET(PathUEList, s.ueList)
	s.router.GET(PathUEInfo+"/:ue_id", s.ueInfo)
	s.router.GET(PathResetNetwork, s.resetNetwork)
	s.router.GET(PathNeighboringAPs+"/:ue_id", s.neighboringAPs)
	s.router.GET(PathUEThroughput+"/:ue_id", s.ueThroughput)
	s.router.GET(PathUESLA+"/:ue_id", s.ueSLA)
	s.router.GET(PathUESignalPower+"/:ue_id", s.ueSignalPower)
	s.router.GET(PathAPSLAs+"/:ap_id", s.apSLAs)
	s.router.POST(PathHandoff+"/:ue_id/:ap_id", s.handoff)

	return s
}

// Handler returns the root HTTP handler, also used by tests through
// httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("simulated cellular network listening",
			zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, cellular.ErrUnknownUE) ||
		errors.Is(err, cellular.ErrUnknownAP) {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(ps httprouter.Params, name string) (int, error) {
	id, err := strconv.Atoi(ps.ByName(name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, ps.ByName(name))
	}
	return id, nil
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name": "rainman2 simulated cellular network",
		"endpoints": []string{
			PathIndex, PathNumUEs, PathNumAPs, PathAPList,
			PathAPInfo + "/:ap_id", PathUEList, PathUEInfo + "/:ue_id",
			PathResetNetwork, PathNeighboringAPs + "/:ue_id",
			PathUEThroughput + "/:ue_id", PathUESLA + "/:ue_id",
			PathUESignalPower + "/:ue_id", PathAPSLAs + "/:ap_id",
			PathHandoff + "/:ue_id/:ap_id",
		},
	})
}

func (s *Server) numUEs(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]int{"num_ues": s.network.NumUEs()})
}

func (s *Server) numAPs(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]int{"num_aps": s.network.NumAPs()})
}

func (s *Server) apList(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, s.network.APList())
}

func (s *Server) apInfo(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	apID, err := pathID(ps, "ap_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ap, err := s.network.APInfo(apID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ap)
}

func (s *Server) ueList(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, s.network.UEList())
}

func (s *Server) ueInfo(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	ueID, err := pathID(ps, "ue_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ue, err := s.network.UEInfo(ueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ue)
}

func (s *Server) resetNetwork(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.network.Reset()
	s.writeJSON(w, http.StatusOK, map[string]bool{"DONE": true})
}

func (s *Server) neighboringAPs(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	ueID, err := pathID(ps, "ue_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	neighbors, err := s.network.NeighboringAPs(ueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ue_id":           ueID,
		"neighboring_aps": neighbors,
	})
}

func (s *Server) ueThroughput(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	ueID, err := pathID(ps, "ue_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	throughput, err := s.network.UEThroughput(ueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ue_id":      ueID,
		"throughput": throughput,
	})
}

func (s *Server) ueSLA(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	ueID, err := pathID(ps, "ue_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sla, err := s.network.UESLA(ueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ue_id": ueID, "sla": sla})
}

func (s *Server) ueSignalPower(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	ueID, err := pathID(ps, "ue_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	signalPower, err := s.network.UESignalPower(ueID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ue_id":        ueID,
		"signal_power": signalPower,
	})
}

func (s *Server) apSLAs(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	apID, err := pathID(ps, "ap_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	slas, err := s.network.APSLAs(apID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ap_id":           apID,
		"ues_meeting_sla": slas,
	})
}

func (s *Server) handoff(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	ueID, err := pathID(ps, "ue_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	apID, err := pathID(ps, "ap_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := s.network.PerformHandoff(ueID, apID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
