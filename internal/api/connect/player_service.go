package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/qplay/internal/api/v1"
	"github.com/osa030/qplay/internal/app/manager"
	"github.com/osa030/qplay/internal/app/notify"
	"github.com/osa030/qplay/internal/app/playback"
	"github.com/osa030/qplay/internal/app/queue"
	"github.com/osa030/qplay/internal/audio"
	"github.com/osa030/qplay/internal/domain/track"
)

// PlayerService exposes the manager over Connect RPC.
type PlayerService struct {
	mgr *manager.Manager
	hub *notify.Hub
}

// NewPlayerService creates the service.
func NewPlayerService(mgr *manager.Manager, hub *notify.Hub) *PlayerService {
	return &PlayerService{mgr: mgr, hub: hub}
}

// Register mounts every procedure on the mux.
func (s *PlayerService) Register(mux *http.ServeMux) {
	codec := connect.WithCodec(jsonCodec{})

	mux.Handle(v1.ProcedureAdd, connect.NewUnaryHandler(v1.ProcedureAdd, s.add, codec))
	mux.Handle(v1.ProcedureList, connect.NewUnaryHandler(v1.ProcedureList, s.list, codec))
	mux.Handle(v1.ProcedureRemove, connect.NewUnaryHandler(v1.ProcedureRemove, s.remove, codec))
	mux.Handle(v1.ProcedureMove, connect.NewUnaryHandler(v1.ProcedureMove, s.move, codec))
	mux.Handle(v1.ProcedureClear, connect.NewUnaryHandler(v1.ProcedureClear, s.clear, codec))
	mux.Handle(v1.ProcedurePlay, connect.NewUnaryHandler(v1.ProcedurePlay, s.play, codec))
	mux.Handle(v1.ProcedurePause, connect.NewUnaryHandler(v1.ProcedurePause, s.pause, codec))
	mux.Handle(v1.ProcedureResume, connect.NewUnaryHandler(v1.ProcedureResume, s.resume, codec))
	mux.Handle(v1.ProcedureNext, connect.NewUnaryHandler(v1.ProcedureNext, s.next, codec))
	mux.Handle(v1.ProcedurePrevious, connect.NewUnaryHandler(v1.ProcedurePrevious, s.previous, codec))
	mux.Handle(v1.ProcedureJump, connect.NewUnaryHandler(v1.ProcedureJump, s.jump, codec))
	mux.Handle(v1.ProcedureSetVolume, connect.NewUnaryHandler(v1.ProcedureSetVolume, s.setVolume, codec))
	mux.Handle(v1.ProcedureStatus, connect.NewUnaryHandler(v1.ProcedureStatus, s.status, codec))
	mux.Handle(v1.ProcedureLoadPlaylist, connect.NewUnaryHandler(v1.ProcedureLoadPlaylist, s.loadPlaylist, codec))
	mux.Handle(v1.ProcedureSavePlaylist, connect.NewUnaryHandler(v1.ProcedureSavePlaylist, s.savePlaylist, codec))
	mux.Handle(v1.ProcedureWatch, connect.NewServerStreamHandler(v1.ProcedureWatch, s.watch, codec))
}

func (s *PlayerService) add(ctx context.Context, req *connect.Request[v1.AddRequest]) (*connect.Response[v1.AddResponse], error) {
	idx, t, err := s.mgr.Add(req.Msg.Path, req.Msg.Position)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&v1.AddResponse{
		Index: idx,
		Track: trackInfo(idx, t),
	}), nil
}

func (s *PlayerService) list(ctx context.Context, req *connect.Request[v1.ListRequest]) (*connect.Response[v1.ListResponse], error) {
	st := s.mgr.Status()
	tracks := s.mgr.List()

	infos := make([]v1.TrackInfo, len(tracks))
	for i, t := range tracks {
		infos[i] = trackInfo(i, t)
	}
	return connect.NewResponse(&v1.ListResponse{
		Tracks: infos,
		Cursor: st.Index,
		State:  st.State.String(),
	}), nil
}

func (s *PlayerService) remove(ctx context.Context, req *connect.Request[v1.RemoveRequest]) (*connect.Response[v1.RemoveResponse], error) {
	t, err := s.mgr.Remove(req.Msg.Index)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&v1.RemoveResponse{Track: trackInfo(req.Msg.Index, t)}), nil
}

func (s *PlayerService) move(ctx context.Context, req *connect.Request[v1.MoveRequest]) (*connect.Response[v1.MoveResponse], error) {
	if err := s.mgr.Move(req.Msg.From, req.Msg.To); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&v1.MoveResponse{}), nil
}

func (s *PlayerService) clear(ctx context.Context, req *connect.Request[v1.ClearRequest]) (*connect.Response[v1.ClearResponse], error) {
	s.mgr.Clear()
	return connect.NewResponse(&v1.ClearResponse{}), nil
}

func (s *PlayerService) play(ctx context.Context, req *connect.Request[v1.TransportRequest]) (*connect.Response[v1.StatusResponse], error) {
	return s.transport(s.mgr.Play)
}

func (s *PlayerService) pause(ctx context.Context, req *connect.Request[v1.TransportRequest]) (*connect.Response[v1.StatusResponse], error) {
	return s.transport(s.mgr.Pause)
}

func (s *PlayerService) resume(ctx context.Context, req *connect.Request[v1.TransportRequest]) (*connect.Response[v1.StatusResponse], error) {
	return s.transport(s.mgr.Resume)
}

func (s *PlayerService) next(ctx context.Context, req *connect.Request[v1.TransportRequest]) (*connect.Response[v1.StatusResponse], error) {
	return s.transport(s.mgr.Next)
}

func (s *PlayerService) previous(ctx context.Context, req *connect.Request[v1.TransportRequest]) (*connect.Response[v1.StatusResponse], error) {
	return s.transport(s.mgr.Previous)
}

func (s *PlayerService) transport(cmd func() error) (*connect.Response[v1.StatusResponse], error) {
	if err := cmd(); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(statusResponse(s.mgr.Status())), nil
}

func (s *PlayerService) jump(ctx context.Context, req *connect.Request[v1.JumpRequest]) (*connect.Response[v1.StatusResponse], error) {
	if err := s.mgr.Jump(req.Msg.Index); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(statusResponse(s.mgr.Status())), nil
}

func (s *PlayerService) setVolume(ctx context.Context, req *connect.Request[v1.VolumeRequest]) (*connect.Response[v1.VolumeResponse], error) {
	if err := s.mgr.SetVolume(req.Msg.Level); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&v1.VolumeResponse{Level: req.Msg.Level}), nil
}

func (s *PlayerService) status(ctx context.Context, req *connect.Request[v1.StatusRequest]) (*connect.Response[v1.StatusResponse], error) {
	return connect.NewResponse(statusResponse(s.mgr.Status())), nil
}

func (s *PlayerService) loadPlaylist(ctx context.Context, req *connect.Request[v1.LoadPlaylistRequest]) (*connect.Response[v1.LoadPlaylistResponse], error) {
	added, skipped, err := s.mgr.LoadPlaylist(req.Msg.Path)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&v1.LoadPlaylistResponse{Added: added, Skipped: skipped}), nil
}

func (s *PlayerService) savePlaylist(ctx context.Context, req *connect.Request[v1.SavePlaylistRequest]) (*connect.Response[v1.SavePlaylistResponse], error) {
	saved, err := s.mgr.SavePlaylist(req.Msg.Path)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&v1.SavePlaylistResponse{Saved: saved}), nil
}

func (s *PlayerService) watch(ctx context.Context, req *connect.Request[v1.WatchRequest], stream *connect.ServerStream[v1.Notification]) error {
	adapter := &watchStreamAdapter{stream: stream}
	id := s.hub.Subscribe(adapter)
	defer s.hub.Unsubscribe(id)

	<-ctx.Done()
	return nil
}

// watchStreamAdapter adapts a connect server stream to notify.Stream.
type watchStreamAdapter struct {
	stream *connect.ServerStream[v1.Notification]
}

func (a *watchStreamAdapter) Send(seq uint64, e playback.Event) error {
	n := &v1.Notification{
		SequenceNo: seq,
		Type:       e.Type.String(),
		Index:      e.Index,
		State:      e.State.String(),
	}
	if e.Track.ID != "" {
		info := trackInfo(e.Index, e.Track)
		n.Track = &info
	}
	if e.Err != nil {
		n.Error = e.Err.Error()
	}
	return a.stream.Send(n)
}

func trackInfo(idx int, t track.Track) v1.TrackInfo {
	return v1.TrackInfo{
		Index:      idx,
		Path:       t.Path,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		Format:     t.Format,
		DurationMs: t.Duration.Milliseconds(),
	}
}

func statusResponse(st playback.Status) *v1.StatusResponse {
	resp := &v1.StatusResponse{
		State:       st.State.String(),
		Index:       st.Index,
		ElapsedMs:   st.Elapsed.Milliseconds(),
		Volume:      st.Volume,
		QueueLength: st.QueueLen,
	}
	if st.Track != nil {
		info := trackInfo(st.Index, *st.Track)
		resp.Track = &info
	}
	return resp
}

// rpcError maps component failures onto Connect codes. Validation and state
// errors land in the invalid-argument/failed-precondition family (client
// exit code 1); source and device errors land in not-found/unavailable
// (client exit code 2).
func rpcError(err error) error {
	switch {
	case errors.Is(err, queue.ErrIndexOutOfRange),
		errors.Is(err, playback.ErrVolumeOutOfRange):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, playback.ErrQueueEmpty),
		errors.Is(err, playback.ErrNotPlaying),
		errors.Is(err, playback.ErrEndOfQueue),
		errors.Is(err, playback.ErrStartOfQueue):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, audio.ErrUnsupportedSource):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
