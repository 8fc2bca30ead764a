package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/simhost/internal/httputil"
	"github.com/banshee-data/simhost/internal/layers"
	"github.com/banshee-data/simhost/internal/streaming"
)

// layerInfo describes one defined map layer for remote callers.
type layerInfo struct {
	Name string `json:"name"`
	Bit  uint32 `json:"bit"`
}

// batchResponse is the wire shape of an issued streaming batch.
type batchResponse struct {
	ID      string   `json:"id"`
	Op      string   `json:"op"`
	Mask    uint32   `json:"mask"`
	Layers  string   `json:"layers"`
	SubMaps []string `json:"sub_maps"`
	Pending int      `json:"pending"`
	Settled bool     `json:"settled"`
}

func toBatchResponse(b *streaming.Batch) batchResponse {
	return batchResponse{
		ID:      b.ID,
		Op:      b.Op.String(),
		Mask:    uint32(b.Mask),
		Layers:  b.Mask.String(),
		SubMaps: b.SubMaps,
		Pending: b.Pending(),
		Settled: b.Settled(),
	}
}

func (s *Server) listLayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var defined []layerInfo
	for bit := layers.Mask(1); bit != 0 && bit <= layers.All; bit <<= 1 {
		if name, ok := layers.Name(bit); ok {
			defined = append(defined, layerInfo{Name: name, Bit: uint32(bit)})
		}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"layers": defined,
		"all":    uint32(layers.All),
	})
}

// layerRequest selects layers either by name list or by raw mask. Names win
// when both are present.
type layerRequest struct {
	Layers []string `json:"layers,omitempty"`
	Mask   *uint32  `json:"mask,omitempty"`
}

func (req *layerRequest) mask() (layers.Mask, error) {
	if len(req.Layers) > 0 {
		return layers.ParseNames(req.Layers)
	}
	if req.Mask != nil {
		return layers.Mask(*req.Mask), nil
	}
	return layers.None, fmt.Errorf("request selects no layers")
}

func (s *Server) loadLayers(w http.ResponseWriter, r *http.Request) {
	s.requestLayers(w, r, s.episode.RequestLoadLayers)
}

func (s *Server) unloadLayers(w http.ResponseWriter, r *http.Request) {
	s.requestLayers(w, r, s.episode.RequestUnloadLayers)
}

func (s *Server) requestLayers(w http.ResponseWriter, r *http.Request, request func(layers.Mask) *streaming.Batch) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req layerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	mask, err := req.mask()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, toBatchResponse(request(mask)))
}

func (s *Server) showStreamingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	st := s.episode.Status()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"ready":                  st.Ready,
		"pending_load_batches":   st.PendingLoad,
		"pending_unload_batches": st.PendingUnload,
	})
}

func (s *Server) listBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	batches, err := s.db.Batches(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve batches: %v", err))
		return
	}
	httputil.WriteJSONOK(w, batches)
}

func (s *Server) showEpisode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.episode.Status())
}

func (s *Server) listEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	episodes, err := s.db.Episodes()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve episodes: %v", err))
		return
	}
	httputil.WriteJSONOK(w, episodes)
}

func (s *Server) listObjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.episode.Objects().Objects())
}

type enableObjectsRequest struct {
	IDs    []uint64 `json:"ids"`
	Enable bool     `json:"enable"`
}

func (s *Server) enableObjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req enableObjectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.IDs) == 0 {
		httputil.BadRequest(w, "no object ids given")
		return
	}

	s.episode.EnableObjects(req.IDs, req.Enable)
	httputil.WriteJSONOK(w, map[string]interface{}{
		"updated": len(req.IDs),
		"enable":  req.Enable,
	})
}

// signalResponse is one resolved signal reference on the road network.
type signalResponse struct {
	SignalID string  `json:"signal_id"`
	RoadID   uint32  `json:"road_id"`
	S        float64 `json:"s"`
	T        float64 `json:"t"`
}

func (s *Server) listSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sm := s.episode.Signals()
	if sm == nil || !sm.Initialized() {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "signal manager not initialized")
		return
	}

	refs := sm.References()
	out := make([]signalResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, signalResponse{
			SignalID: ref.Signal.ID,
			RoadID:   uint32(ref.RoadID),
			S:        ref.Signal.S,
			T:        ref.Signal.T,
		})
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showSignalLanes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "missing 'id' parameter")
		return
	}

	sm := s.episode.Signals()
	if sm == nil || !sm.Initialized() {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "signal manager not initialized")
		return
	}

	assocs, ok := sm.LaneAssociations(id)
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("unknown signal %q", id))
		return
	}
	httputil.WriteJSONOK(w, assocs)
}
